package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrInvalidQuery signals a malformed search request (top_k, filters, owner).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyDocument signals that no text could be extracted from an upload.
	ErrEmptyDocument = errors.New("document appears to be empty or unreadable")
	// ErrNoChunks signals that chunking produced nothing indexable.
	ErrNoChunks = errors.New("could not extract meaningful chunks")
	// ErrUnsupportedFileType signals an upload with an unknown extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrExtractionFailed signals a parser failure on a supported file type.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrDocumentNotFound signals a missing (or foreign) document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnauthorized signals a request without a resolvable owner.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidConfig signals a configuration rejected at startup.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnavailable marks collaborator failures (vector store, document store).
	// Callers may retry these; input errors above should not be retried.
	ErrUnavailable = errors.New("service unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// Unavailable wraps a collaborator failure so that errors.Is(err, ErrUnavailable) holds
// while the cause stays reachable through errors.Unwrap chains.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
