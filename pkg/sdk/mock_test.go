package docmind

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
)

// --- documentUseCase mock ---

type mockDocumentUC struct {
	ingestFn func(ctx context.Context, owner string, up documentuc.Upload) (domain.Document, error)
	listFn   func(ctx context.Context, owner string) ([]domain.Document, error)
	getFn    func(ctx context.Context, owner string, id int64) (domain.Document, error)
	deleteFn func(ctx context.Context, owner string, id int64) (int, error)
	reloadFn func(ctx context.Context) (int, error)
}

func (m *mockDocumentUC) Ingest(ctx context.Context, owner string, up documentuc.Upload) (domain.Document, error) {
	return m.ingestFn(ctx, owner, up)
}

func (m *mockDocumentUC) List(ctx context.Context, owner string) ([]domain.Document, error) {
	return m.listFn(ctx, owner)
}

func (m *mockDocumentUC) Get(ctx context.Context, owner string, id int64) (domain.Document, error) {
	return m.getFn(ctx, owner, id)
}

func (m *mockDocumentUC) Delete(ctx context.Context, owner string, id int64) (int, error) {
	return m.deleteFn(ctx, owner, id)
}

func (m *mockDocumentUC) Reload(ctx context.Context) (int, error) {
	return m.reloadFn(ctx)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) ([]result.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.searchFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// --- helpers ---

func testClient(docSvc documentUseCase, searchSvc searchUseCase) *Client {
	return &Client{
		docSvc:    docSvc,
		searchSvc: searchSvc,
	}
}
