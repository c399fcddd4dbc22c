package search

import (
	"math"
	"sort"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// scorePrecision is the number of decimals kept in presented scores.
const scorePrecision = 1e6

// candidate is one identifier seen by at least one leg. Ranks are 1-based;
// an absent leg carries the penalty rank fetchK+1.
type candidate struct {
	id      string
	semRank int
	lexRank int
	score   float64
}

// fuseRRF merges the two rankings with weighted Reciprocal Rank Fusion:
// score = alpha/(k + sem_rank) + (1-alpha)/(k + lex_rank).
// semIDs and lexIDs are in rank order and already scoped to the caller.
// Candidates scoring below minScore are dropped; the rest come back sorted by
// score descending, ties by semantic rank then lexical rank, cut to topK.
func fuseRRF(semIDs, lexIDs []string, alpha float64, fetchK, topK int, minScore float64) (fused []candidate, belowMin int) {
	absent := fetchK + 1
	byID := make(map[string]*candidate, len(semIDs)+len(lexIDs))
	order := make([]*candidate, 0, len(semIDs)+len(lexIDs))

	for i, id := range semIDs {
		if _, dup := byID[id]; dup {
			continue
		}
		c := &candidate{id: id, semRank: i + 1, lexRank: absent}
		byID[id] = c
		order = append(order, c)
	}
	for i, id := range lexIDs {
		if c, ok := byID[id]; ok {
			if c.lexRank == absent {
				c.lexRank = i + 1
			}
			continue
		}
		c := &candidate{id: id, semRank: absent, lexRank: i + 1}
		byID[id] = c
		order = append(order, c)
	}

	fused = make([]candidate, 0, len(order))
	for _, c := range order {
		c.score = alpha/float64(rrfK+c.semRank) + (1-alpha)/float64(rrfK+c.lexRank)
		if c.score < minScore {
			belowMin++
			continue
		}
		fused = append(fused, *c)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		if fused[i].semRank != fused[j].semRank {
			return fused[i].semRank < fused[j].semRank
		}
		return fused[i].lexRank < fused[j].lexRank
	})

	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, belowMin
}

func roundScore(s float64) float64 {
	return math.Round(s*scorePrecision) / scorePrecision
}
