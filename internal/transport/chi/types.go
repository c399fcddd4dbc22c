package chi

import "time"

// ErrorCode is the machine-readable error class in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeDocumentNotFound       ErrorCode = "document_not_found"
	CodeUnsupportedFileType    ErrorCode = "unsupported_file_type"
	CodeUnprocessableDocument  ErrorCode = "unprocessable_document"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeServiceUnavailable     ErrorCode = "service_unavailable"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Metadata is the optional exact-match labelling of a document.
type Metadata struct {
	Source   *string `json:"source,omitempty"`
	Category *string `json:"category,omitempty"`
	Client   *string `json:"client,omitempty"`
}

// UploadResponse is returned by POST /api/v1/documents.
type UploadResponse struct {
	Message       string `json:"message"`
	DocumentID    int64  `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

// DocumentResponse describes one stored document.
type DocumentResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	Metadata   Metadata  `json:"metadata"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}

// DocumentListResponse is returned by GET /api/v1/documents.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// DeleteResponse is returned by DELETE /api/v1/documents/{id}.
type DeleteResponse struct {
	Message       string `json:"message"`
	DocumentID    int64  `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query    string  `json:"query"`
	TopK     *int    `json:"top_k,omitempty"`
	Source   *string `json:"source,omitempty"`
	Category *string `json:"category,omitempty"`
	Client   *string `json:"client,omitempty"`
}

// SearchParams are the query parameters of GET /api/v1/search.
type SearchParams struct {
	Q        *string
	TopK     *int
	Source   *string
	Category *string
	Client   *string
}

// SearchResultItem is one fused hit.
type SearchResultItem struct {
	ExternalID string   `json:"external_id"`
	Score      float64  `json:"score"`
	Content    string   `json:"content"`
	DocumentID int64    `json:"document_id"`
	Filename   string   `json:"filename"`
	ChunkIndex int      `json:"chunk_index"`
	Metadata   Metadata `json:"metadata"`
}

// SearchResponse is returned by both search endpoints.
type SearchResponse struct {
	Query        string             `json:"query"`
	TotalResults int                `json:"total_results"`
	Results      []SearchResultItem `json:"results"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	LexicalSize int               `json:"lexical_size"`
}
