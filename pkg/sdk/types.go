package docmind

import "time"

// Metadata labels a document. Empty fields are unset.
type Metadata struct {
	Source   string
	Category string
	Client   string
}

// Document is a stored document.
type Document struct {
	ID         int64
	Filename   string
	FileType   string
	Metadata   Metadata
	UploadedAt time.Time
	ChunkCount int
}

// SearchOptions tune a query. Zero TopK takes the client default (see WithTopK).
// Non-empty Filters fields must match exactly.
type SearchOptions struct {
	TopK    int
	Filters Metadata
}

// SearchResult is one fused hit.
type SearchResult struct {
	ID         string
	Score      float64
	Content    string
	DocumentID int64
	Filename   string
	ChunkIndex int
	Metadata   Metadata
}
