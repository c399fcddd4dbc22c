package domain

import "time"

// Metadata keys usable as exact-match filters.
const (
	MetaSource   = "source"
	MetaCategory = "category"
	MetaClient   = "client"
)

// MetadataKeys lists the filterable metadata keys in a stable order.
var MetadataKeys = []string{MetaSource, MetaCategory, MetaClient}

// Metadata holds the optional document tags. A nil field means "not set".
type Metadata struct {
	Source   *string
	Category *string
	Client   *string
}

// NewMetadata builds Metadata from plain strings; empty strings are treated as unset.
func NewMetadata(source, category, client string) Metadata {
	return Metadata{
		Source:   optional(source),
		Category: optional(category),
		Client:   optional(client),
	}
}

// Get returns the value stored under key, if any.
func (m Metadata) Get(key string) (string, bool) {
	var v *string
	switch key {
	case MetaSource:
		v = m.Source
	case MetaCategory:
		v = m.Category
	case MetaClient:
		v = m.Client
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// Matches reports whether every filter key holds exactly the given value.
// An empty filter set matches everything.
func (m Metadata) Matches(filters map[string]string) bool {
	for k, want := range filters {
		got, ok := m.Get(k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Map returns the set fields as a plain map.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(MetadataKeys))
	for _, k := range MetadataKeys {
		if v, ok := m.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Document is an uploaded file owned by exactly one user.
type Document struct {
	ID         int64
	OwnerID    string
	Filename   string
	FileType   string
	Metadata   Metadata
	UploadedAt time.Time
	ChunkCount int
}

// Chunk is a contiguous slice of a document's text, the unit of indexing and retrieval.
type Chunk struct {
	ExternalID string
	DocumentID int64
	OwnerID    string
	Filename   string
	Content    string
	ChunkIndex int
	Metadata   Metadata
}

// ChunkVector pairs a chunk with its embedding for the vector service.
type ChunkVector struct {
	Chunk  Chunk
	Vector []float32
}
