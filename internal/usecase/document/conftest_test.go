package document

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	docs      map[int64]domain.Document
	chunks    map[int64][]domain.Chunk
	createErr error
	deleteErr error
	deleted   []int64
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[int64]domain.Document{}, chunks: map[int64][]domain.Chunk{}}
}

func (m *memRepo) CreateWithChunks(_ context.Context, doc domain.Document, chunks []domain.Chunk) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return domain.Document{}, m.createErr
	}
	m.nextID++
	doc.ID = m.nextID
	doc.ChunkCount = len(chunks)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	m.docs[doc.ID] = doc
	m.chunks[doc.ID] = append([]domain.Chunk(nil), chunks...)
	return doc, nil
}

func (m *memRepo) Get(_ context.Context, ownerID string, id int64) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.OwnerID != ownerID {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return d, nil
}

func (m *memRepo) List(_ context.Context, ownerID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) ChunkIDs(_ context.Context, documentID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, c := range m.chunks[documentID] {
		ids = append(ids, c.ExternalID)
	}
	return ids, nil
}

func (m *memRepo) Delete(_ context.Context, ownerID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	d, ok := m.docs[id]
	if !ok || d.OwnerID != ownerID {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memRepo) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.chunks))
	for id := range m.chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []domain.Chunk
	for _, id := range ids {
		out = append(out, m.chunks[id]...)
	}
	return out, nil
}

type mockVectors struct {
	upserted  map[string]domain.ChunkVector
	upsertErr error
	deleteErr error
	deleted   []string
}

func newMockVectors() *mockVectors {
	return &mockVectors{upserted: map[string]domain.ChunkVector{}}
}

func (m *mockVectors) Upsert(_ context.Context, items []domain.ChunkVector) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, it := range items {
		m.upserted[it.Chunk.ExternalID] = it
	}
	return nil
}

func (m *mockVectors) Delete(_ context.Context, ids []string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, id := range ids {
		delete(m.upserted, id)
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

// fakeEmbedder returns a 2-dim vector per text and counts batch calls.
type fakeEmbedder struct {
	err        error
	batchCalls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}, TotalTokens: 1}, nil
}

func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchCalls++
	return domain.BatchFallback(ctx, f, texts)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("chunk-%d", n)
	}
}
