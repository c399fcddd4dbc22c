package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/filter"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
)

const defaultMaxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// DocumentService is the document use case as seen by the transport.
type DocumentService interface {
	Ingest(ctx context.Context, ownerID string, up documentuc.Upload) (domain.Document, error)
	List(ctx context.Context, ownerID string) ([]domain.Document, error)
	Get(ctx context.Context, ownerID string, id int64) (domain.Document, error)
	Delete(ctx context.Context, ownerID string, id int64) (int, error)
}

// SearchService runs hybrid search.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Options tune request handling.
type Options struct {
	MaxUploadBytes int64
	SearchLimits   request.Limits
}

// Server serves the docmind HTTP API.
type Server struct {
	documents     DocumentService
	search        SearchService
	health        HealthService
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents DocumentService,
	search SearchService,
	health HealthService,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		documents: documents,
		search:    search,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusUnsupportedMediaType, CodeUnsupportedFileType),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusUnprocessableEntity, CodeUnprocessableDocument),
		sentinelHandler(domain.ErrNoChunks, http.StatusUnprocessableEntity, CodeUnprocessableDocument),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusUnprocessableEntity, CodeUnprocessableDocument),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, CodeServiceUnavailable),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.UploadDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/search", s.SearchPost)
		r.Get("/search", s.SearchGet)
	})
}

// UploadDocument handles POST /api/v1/documents (multipart: file, source, category, client).
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("file exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read file")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	doc, err := s.documents.Ingest(ctx, OwnerFromContext(ctx), documentuc.Upload{
		Filename: header.Filename,
		Data:     data,
		Metadata: domain.NewMetadata(
			r.FormValue(domain.MetaSource),
			r.FormValue(domain.MetaCategory),
			r.FormValue(domain.MetaClient),
		),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:       "Document uploaded successfully",
		DocumentID:    doc.ID,
		Filename:      doc.Filename,
		ChunksCreated: doc.ChunkCount,
	})
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	doc, err := s.documents.Get(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	removed, err := s.documents.Delete(r.Context(), OwnerFromContext(r.Context()), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{
		Message:       "Document deleted successfully",
		DocumentID:    id,
		ChunksRemoved: removed,
	})
}

// SearchPost handles POST /api/v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req.Query, req.TopK, req.Source, req.Category, req.Client)
}

// SearchGet handles GET /api/v1/search?q=&top_k=&source=&category=&client=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid query parameters: "+err.Error())
		return
	}
	s.runSearch(w, r, deref(params.Q), params.TopK, params.Source, params.Category, params.Client)
}

func (s *Server) runSearch(
	w http.ResponseWriter, r *http.Request,
	query string, topK *int, source, category, client *string,
) {
	fs, err := filter.New(map[string]string{
		domain.MetaSource:   deref(source),
		domain.MetaCategory: deref(category),
		domain.MetaClient:   deref(client),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	req, err := request.NewWithLimits(query, OwnerFromContext(ctx), topK, fs, s.opts.SearchLimits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToResponse(&results[i])
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        query,
		TotalResults: len(items),
		Results:      items,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:      string(report.Status),
		Checks:      checks,
		LexicalSize: report.LexicalSize,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindSearchParams decodes the GET /search query string.
func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &p.Q); err != nil {
		return SearchParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", q, &p.TopK); err != nil {
		return SearchParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, domain.MetaSource, q, &p.Source); err != nil {
		return SearchParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, domain.MetaCategory, q, &p.Category); err != nil {
		return SearchParams{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, domain.MetaClient, q, &p.Client); err != nil {
		return SearchParams{}, err
	}
	return p, nil
}

// documentID binds the {id} path parameter, writing a 400 on failure.
func documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// inputSentinels describe caller mistakes; their full message is safe to return.
var inputSentinels = []error{
	domain.ErrEmptyQuery,
	domain.ErrInvalidQuery,
	domain.ErrUnsupportedFileType,
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range inputSentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	sentinels := []error{
		domain.ErrUnauthorized,
		domain.ErrDocumentNotFound,
		domain.ErrEmptyDocument,
		domain.ErrNoChunks,
		domain.ErrExtractionFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func metadataToResponse(m domain.Metadata) Metadata {
	return Metadata{Source: m.Source, Category: m.Category, Client: m.Client}
}

func documentToResponse(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
		Metadata:   metadataToResponse(doc.Metadata),
		UploadedAt: doc.UploadedAt,
		ChunkCount: doc.ChunkCount,
	}
}

func searchResultToResponse(r *result.Result) SearchResultItem {
	return SearchResultItem{
		ExternalID: r.ID(),
		Score:      r.Score(),
		Content:    r.Content(),
		DocumentID: r.DocumentID(),
		Filename:   r.Filename(),
		ChunkIndex: r.ChunkIndex(),
		Metadata:   metadataToResponse(r.Metadata()),
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
