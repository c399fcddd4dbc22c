package search

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/lexical"
	"github.com/kailas-cloud/docmind/internal/repository/vector"
)

// VectorIndex is the semantic leg: owner-scoped KNN plus payload lookup by id.
type VectorIndex interface {
	Search(
		ctx context.Context, vec []float32, limit int,
		ownerID string, filters map[string]string, floor float64,
	) ([]vector.Hit, error)
	Retrieve(ctx context.Context, ids []string) (map[string]domain.Chunk, error)
}

// LexicalIndex is the keyword leg.
type LexicalIndex interface {
	Query(ctx context.Context, text string, topK int) ([]lexical.Hit, error)
}

// OwnerVerifier confirms that lexical-only hits belong to the owner and match the filters.
type OwnerVerifier interface {
	VerifyOwned(ctx context.Context, ownerID string, ids []string, filters map[string]string) (map[string]bool, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
