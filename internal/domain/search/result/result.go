package result

import "github.com/kailas-cloud/docmind/internal/domain"

// Result is a single fused search hit.
type Result struct {
	id         string
	score      float64
	content    string
	documentID int64
	filename   string
	chunkIndex int
	metadata   domain.Metadata
}

// New creates a search result from a resolved chunk and its fused score.
func New(c domain.Chunk, score float64) Result {
	return Result{
		id:         c.ExternalID,
		score:      score,
		content:    c.Content,
		documentID: c.DocumentID,
		filename:   c.Filename,
		chunkIndex: c.ChunkIndex,
		metadata:   c.Metadata,
	}
}

// ID returns the chunk identifier.
func (r *Result) ID() string { return r.id }

// Score returns the fused relevance score.
func (r *Result) Score() float64 { return r.score }

// Content returns the chunk text.
func (r *Result) Content() string { return r.content }

// DocumentID returns the parent document.
func (r *Result) DocumentID() int64 { return r.documentID }

// Filename returns the parent document's original file name.
func (r *Result) Filename() string { return r.filename }

// ChunkIndex returns the chunk's position within its document.
func (r *Result) ChunkIndex() int { return r.chunkIndex }

// Metadata returns the document tags.
func (r *Result) Metadata() domain.Metadata { return r.metadata }
