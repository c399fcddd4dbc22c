package document

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/lexical"
)

// Repository defines the durable store for documents and their chunk rows.
type Repository interface {
	CreateWithChunks(ctx context.Context, doc domain.Document, chunks []domain.Chunk) (domain.Document, error)
	Get(ctx context.Context, ownerID string, id int64) (domain.Document, error)
	List(ctx context.Context, ownerID string) ([]domain.Document, error)
	ChunkIDs(ctx context.Context, documentID int64) ([]string, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	AllChunks(ctx context.Context) ([]domain.Chunk, error)
}

// VectorWriter stores and removes chunk vectors.
type VectorWriter interface {
	Upsert(ctx context.Context, items []domain.ChunkVector) error
	Delete(ctx context.Context, ids []string) error
}

// LexicalIndex is the mutable side of the keyword index.
type LexicalIndex interface {
	Add(id, text string)
	Build()
	RebuildFrom(entries []lexical.Entry)
	Size() int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
