package document

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/chunker"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/extract"
	"github.com/kailas-cloud/docmind/internal/lexical"
	"github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/metrics"
)

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename string
	Data     []byte
	Metadata domain.Metadata
}

// Service ingests, lists and deletes documents, keeping the document store,
// the vector index and the lexical index in step.
type Service struct {
	repo     Repository
	vectors  VectorWriter
	lex      LexicalIndex
	embedder Embedder
	chunking chunker.Params
	newID    func() string

	// writeMu serializes index writes so a rebuild never races an ingest.
	writeMu sync.Mutex
}

// New creates a document service. embedder should apply the passage instruction.
func New(repo Repository, vectors VectorWriter, lex LexicalIndex, embedder Embedder, chunking chunker.Params) *Service {
	return &Service{
		repo:     repo,
		vectors:  vectors,
		lex:      lex,
		embedder: embedder,
		chunking: chunking,
		newID:    uuid.NewString,
	}
}

// Ingest extracts, chunks, embeds and indexes one upload for ownerID.
func (s *Service) Ingest(ctx context.Context, ownerID string, up Upload) (domain.Document, error) {
	if ownerID == "" {
		return domain.Document{}, domain.ErrUnauthorized
	}
	fileType, err := extract.FileType(up.Filename)
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := s.ingest(ctx, ownerID, fileType, up)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IngestDocumentsTotal.WithLabelValues(fileType, status).Inc()
	return doc, err
}

func (s *Service) ingest(ctx context.Context, ownerID, fileType string, up Upload) (domain.Document, error) {
	text, err := extract.Text(up.Filename, up.Data)
	if err != nil {
		return domain.Document{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, domain.ErrEmptyDocument
	}

	pieces, err := chunker.Split(text, s.chunking)
	if err != nil {
		return domain.Document{}, fmt.Errorf("chunk document: %w", err)
	}
	if len(pieces) == 0 {
		return domain.Document{}, domain.ErrNoChunks
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Content
	}
	emb, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return domain.Document{}, fmt.Errorf("vectorize chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			ExternalID: s.newID(),
			OwnerID:    ownerID,
			Filename:   up.Filename,
			Content:    p.Content,
			ChunkIndex: p.Index,
			Metadata:   up.Metadata,
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.repo.CreateWithChunks(ctx, domain.Document{
		OwnerID:  ownerID,
		Filename: up.Filename,
		FileType: fileType,
		Metadata: up.Metadata,
	}, chunks)
	if err != nil {
		return domain.Document{}, fmt.Errorf("store document: %w", err)
	}

	items := make([]domain.ChunkVector, len(chunks))
	for i := range chunks {
		items[i] = domain.ChunkVector{Chunk: chunks[i], Vector: emb.Embeddings[i]}
	}
	if err := s.vectors.Upsert(ctx, items); err != nil {
		if derr := s.repo.Delete(context.WithoutCancel(ctx), ownerID, doc.ID); derr != nil {
			logger.FromContext(ctx).Error("Failed to remove document after vector upsert failure",
				zap.Int64("document_id", doc.ID),
				zap.Error(derr),
			)
		}
		return domain.Document{}, fmt.Errorf("index vectors: %w", err)
	}

	for _, c := range chunks {
		s.lex.Add(c.ExternalID, c.Content)
	}
	s.lex.Build()
	metrics.LexicalIndexSize.Set(float64(s.lex.Size()))
	metrics.IngestChunksTotal.Add(float64(len(chunks)))

	logger.FromContext(ctx).Info("Document ingested",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(chunks)),
	)
	return doc, nil
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	docs, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns one of the owner's documents.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (domain.Document, error) {
	doc, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document from every store and returns how many chunks went with it.
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) (int, error) {
	if _, err := s.repo.Get(ctx, ownerID, id); err != nil {
		return 0, fmt.Errorf("get document: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ids, err := s.repo.ChunkIDs(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("list chunk ids: %w", err)
	}
	if err := s.vectors.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	if _, err := s.rebuildLocked(ctx); err != nil {
		return 0, err
	}

	logger.FromContext(ctx).Info("Document deleted",
		zap.Int64("document_id", id),
		zap.Int("chunks", len(ids)),
	)
	return len(ids), nil
}

// Reload replaces the lexical corpus with every chunk in the document store.
// Called at startup since the lexical index is not persisted.
func (s *Service) Reload(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Service) rebuildLocked(ctx context.Context) (int, error) {
	chunks, err := s.repo.AllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	entries := make([]lexical.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = lexical.Entry{ID: c.ExternalID, Text: c.Content}
	}
	s.lex.RebuildFrom(entries)
	metrics.LexicalRebuildsTotal.Inc()
	metrics.LexicalIndexSize.Set(float64(len(entries)))
	return len(entries), nil
}
