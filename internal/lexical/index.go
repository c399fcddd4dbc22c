// Package lexical implements the in-memory BM25 keyword index used as the
// lexical leg of hybrid search.
//
// The index keeps an ordered corpus of (external id, tokens) pairs and a
// derived ranking structure. Add marks the structure dirty; the next Build
// or Query recomputes it from the whole corpus. There is no incremental
// removal: callers replace the corpus with RebuildFrom.
package lexical

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/semaphore"
)

// BM25 parameters.
const (
	K1 = 1.5
	B  = 0.75
)

// Readers share the semaphore one unit at a time; writers take all of it.
const writerWeight = 1 << 20

// Entry is one indexed chunk.
type Entry struct {
	ID   string
	Text string
}

// Hit is a ranked lexical match.
type Hit struct {
	ID    string
	Score float64
}

type doc struct {
	id     string
	tokens []string
}

type posting struct {
	doc int
	tf  int
}

// stats is the derived ranking structure.
type stats struct {
	postings map[string][]posting
	docLen   []int
	avgDL    float64
}

// Index is safe for concurrent use. The zero value is not usable; call New.
type Index struct {
	sem   *semaphore.Weighted
	docs  []doc
	built *stats // nil means dirty
}

// New returns an empty index.
func New() *Index {
	return &Index{sem: semaphore.NewWeighted(writerWeight)}
}

// Add appends a chunk and invalidates the ranking structure.
func (ix *Index) Add(id, text string) {
	ix.lock()
	defer ix.unlock()
	ix.docs = append(ix.docs, doc{id: id, tokens: Tokenize(text)})
	ix.built = nil
}

// Build recomputes the ranking structure from the current corpus.
// Building an empty corpus succeeds and yields an empty structure.
func (ix *Index) Build() {
	ix.lock()
	defer ix.unlock()
	ix.buildLocked()
}

// RebuildFrom replaces the corpus with entries and rebuilds.
func (ix *Index) RebuildFrom(entries []Entry) {
	docs := make([]doc, len(entries))
	for i, e := range entries {
		docs[i] = doc{id: e.ID, tokens: Tokenize(e.Text)}
	}

	ix.lock()
	defer ix.unlock()
	ix.docs = docs
	ix.buildLocked()
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	ix.rlock()
	defer ix.runlock()
	return len(ix.docs)
}

// Query returns up to topK hits with a positive score, highest first.
// Equal scores keep corpus insertion order. A dirty structure is rebuilt
// first. Waiting for a concurrent writer is bounded by ctx.
func (ix *Index) Query(ctx context.Context, text string, topK int) ([]Hit, error) {
	terms := Tokenize(text)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	if err := ix.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if ix.built != nil || len(ix.docs) == 0 {
		defer ix.runlock()
		return ix.score(terms, topK), nil
	}
	ix.runlock()

	if err := ix.sem.Acquire(ctx, writerWeight); err != nil {
		return nil, err
	}
	defer ix.unlock()
	if ix.built == nil {
		ix.buildLocked()
	}
	return ix.score(terms, topK), nil
}

func (ix *Index) buildLocked() {
	s := &stats{
		postings: make(map[string][]posting),
		docLen:   make([]int, len(ix.docs)),
	}
	total := 0
	for i, d := range ix.docs {
		s.docLen[i] = len(d.tokens)
		total += len(d.tokens)

		tf := make(map[string]int, len(d.tokens))
		for _, t := range d.tokens {
			tf[t]++
		}
		for t, n := range tf {
			s.postings[t] = append(s.postings[t], posting{doc: i, tf: n})
		}
	}
	if len(ix.docs) > 0 {
		s.avgDL = float64(total) / float64(len(ix.docs))
	}
	ix.built = s
}

// score runs under at least a read lock. Repeated query terms count once per occurrence.
func (ix *Index) score(terms []string, topK int) []Hit {
	s := ix.built
	if s == nil || len(ix.docs) == 0 {
		return nil
	}

	n := float64(len(ix.docs))
	scores := make(map[int]float64)
	for _, t := range terms {
		plist := s.postings[t]
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range plist {
			tf := float64(p.tf)
			dl := float64(s.docLen[p.doc])
			norm := 1 - B
			if s.avgDL > 0 {
				norm += B * dl / s.avgDL
			}
			scores[p.doc] += idf * tf * (K1 + 1) / (tf + K1*norm)
		}
	}

	order := make([]int, 0, len(scores))
	for i, sc := range scores {
		if sc > 0 {
			order = append(order, i)
		}
	}
	sort.Ints(order)
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > topK {
		order = order[:topK]
	}

	hits := make([]Hit, len(order))
	for i, d := range order {
		hits[i] = Hit{ID: ix.docs[d].id, Score: scores[d]}
	}
	return hits
}

// lock and rlock never fail: Background never cancels.
func (ix *Index) lock()    { _ = ix.sem.Acquire(context.Background(), writerWeight) }
func (ix *Index) unlock()  { ix.sem.Release(writerWeight) }
func (ix *Index) rlock()   { _ = ix.sem.Acquire(context.Background(), 1) }
func (ix *Index) runlock() { ix.sem.Release(1) }
