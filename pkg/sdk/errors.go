package docmind

import "github.com/kailas-cloud/docmind/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrEmptyDocument          = domain.ErrEmptyDocument
	ErrNoChunks               = domain.ErrNoChunks
	ErrUnsupportedFileType    = domain.ErrUnsupportedFileType
	ErrExtractionFailed       = domain.ErrExtractionFailed
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrUnauthorized           = domain.ErrUnauthorized
	ErrUnavailable            = domain.ErrUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
)
