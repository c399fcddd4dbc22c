package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	"github.com/kailas-cloud/docmind/internal/lexical"
	"github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/metrics"
	"github.com/kailas-cloud/docmind/internal/repository/vector"
)

// Default fusion parameters.
const (
	DefaultAlpha       = 0.7
	DefaultLexicalWait = 2 * time.Second
)

// Options tune fusion. Zero values take the defaults above where noted.
type Options struct {
	// Alpha weights the semantic leg; 1-Alpha weights the lexical leg.
	Alpha float64
	// MinSimilarity is the vector similarity floor for the semantic leg.
	MinSimilarity float64
	// MinScore drops fused candidates scoring below it.
	MinScore float64
	// LexicalWait bounds how long the lexical leg waits for the index lock.
	LexicalWait time.Duration
}

// Service runs hybrid search: a semantic leg and a lexical leg fused with weighted RRF.
type Service struct {
	vectors  VectorIndex
	lex      LexicalIndex
	verifier OwnerVerifier
	embed    Embedder
	opts     Options
}

// New creates a search service. A nil verifier restricts lexical hits to the
// semantic candidate set; with a verifier, lexical-only hits are kept when the
// verifier confirms the owner and filters.
func New(vectors VectorIndex, lex LexicalIndex, verifier OwnerVerifier, embed Embedder, opts Options) *Service {
	if opts.LexicalWait <= 0 {
		opts.LexicalWait = DefaultLexicalWait
	}
	return &Service{vectors: vectors, lex: lex, verifier: verifier, embed: embed, opts: opts}
}

// Search executes a hybrid search for one owner.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	fetchK := req.FetchK()
	filters := req.Filters().Map()

	var (
		semHits []vector.Hit
		lexHits []lexical.Hit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		defer observeLeg("semantic", start)

		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		hits, err := s.vectors.Search(gctx, emb.Embedding, fetchK, req.OwnerID(), filters, s.opts.MinSimilarity)
		if err != nil {
			return fmt.Errorf("semantic leg: %w", err)
		}
		semHits = hits
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		defer observeLeg("lexical", start)

		lctx, cancel := context.WithTimeout(gctx, s.opts.LexicalWait)
		defer cancel()
		hits, err := s.lex.Query(lctx, req.Query(), fetchK)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return domain.Unavailable("lexical leg", err)
			}
			return fmt.Errorf("lexical leg: %w", err)
		}
		lexHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payloads := make(map[string]domain.Chunk, len(semHits))
	semIDs := make([]string, 0, len(semHits))
	for _, h := range semHits {
		if _, dup := payloads[h.Chunk.ExternalID]; dup {
			continue
		}
		payloads[h.Chunk.ExternalID] = h.Chunk
		semIDs = append(semIDs, h.Chunk.ExternalID)
	}

	lexIDs, err := s.scopeLexical(ctx, req, lexHits, payloads)
	if err != nil {
		return nil, err
	}

	fused, belowMin := fuseRRF(semIDs, lexIDs, s.opts.Alpha, fetchK, req.TopK(), s.opts.MinScore)
	if belowMin > 0 {
		metrics.FusionDroppedTotal.WithLabelValues("below_min_score").Add(float64(belowMin))
	}

	if err := s.backfill(ctx, fused, payloads); err != nil {
		return nil, err
	}

	results := make([]result.Result, 0, len(fused))
	for _, c := range fused {
		chunk, ok := payloads[c.id]
		if !ok {
			logger.FromContext(ctx).Warn("Dropping unresolved search hit",
				zap.String("external_id", c.id),
			)
			metrics.FusionDroppedTotal.WithLabelValues("unresolved").Inc()
			continue
		}
		results = append(results, result.New(chunk, roundScore(c.score)))
	}

	metrics.SearchResults.Observe(float64(len(results)))
	return results, nil
}

// scopeLexical keeps the lexical hits the caller may see, in rank order.
func (s *Service) scopeLexical(
	ctx context.Context, req *request.Request,
	hits []lexical.Hit, semantic map[string]domain.Chunk,
) ([]string, error) {
	ids := make([]string, 0, len(hits))
	var unknown []string
	for _, h := range hits {
		if _, ok := semantic[h.ID]; ok {
			ids = append(ids, h.ID)
			continue
		}
		unknown = append(unknown, h.ID)
	}

	if len(unknown) == 0 {
		return ids, nil
	}
	if s.verifier == nil {
		metrics.FusionDroppedTotal.WithLabelValues("out_of_scope").Add(float64(len(unknown)))
		return ids, nil
	}

	owned, err := s.verifier.VerifyOwned(ctx, req.OwnerID(), unknown, req.Filters().Map())
	if err != nil {
		return nil, fmt.Errorf("verify lexical hits: %w", err)
	}

	ids = ids[:0]
	dropped := 0
	for _, h := range hits {
		if _, ok := semantic[h.ID]; ok || owned[h.ID] {
			ids = append(ids, h.ID)
			continue
		}
		dropped++
	}
	if dropped > 0 {
		metrics.FusionDroppedTotal.WithLabelValues("out_of_scope").Add(float64(dropped))
	}
	return ids, nil
}

// backfill loads payloads for fused candidates the semantic leg did not return.
func (s *Service) backfill(ctx context.Context, fused []candidate, payloads map[string]domain.Chunk) error {
	var missing []string
	for _, c := range fused {
		if _, ok := payloads[c.id]; !ok {
			missing = append(missing, c.id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found, err := s.vectors.Retrieve(ctx, missing)
	if err != nil {
		return fmt.Errorf("retrieve payloads: %w", err)
	}
	for id, c := range found {
		payloads[id] = c
	}
	return nil
}

func observeLeg(leg string, start time.Time) {
	metrics.SearchLegDuration.WithLabelValues(leg).Observe(time.Since(start).Seconds())
}
