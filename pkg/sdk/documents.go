package docmind

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docmind/internal/domain"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
)

// Ingest extracts, chunks, embeds and indexes one file for ownerID.
// The file type is taken from the filename extension (.pdf, .docx, .txt, .md).
func (c *Client) Ingest(
	ctx context.Context, ownerID, filename string, data []byte, meta Metadata,
) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document.ingest", start, err) }()

	d, err := c.docSvc.Ingest(ctx, ownerID, documentuc.Upload{
		Filename: filename,
		Data:     data,
		Metadata: toInternalMetadata(meta),
	})
	if err != nil {
		return Document{}, fmt.Errorf("ingest: %w", err)
	}
	return fromInternalDocument(&d), nil
}

// Documents lists the owner's documents, newest first.
func (c *Client) Documents(ctx context.Context, ownerID string) (docs []Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document.list", start, err) }()

	list, err := c.docSvc.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]Document, len(list))
	for i := range list {
		out[i] = fromInternalDocument(&list[i])
	}
	return out, nil
}

// Document returns one of the owner's documents.
func (c *Client) Document(ctx context.Context, ownerID string, id int64) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document.get", start, err) }()

	d, err := c.docSvc.Get(ctx, ownerID, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(&d), nil
}

// Delete removes a document and its chunks from every index.
// Returns the number of chunks removed.
func (c *Client) Delete(ctx context.Context, ownerID string, id int64) (removed int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("document.delete", start, err) }()

	removed, err = c.docSvc.Delete(ctx, ownerID, id)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	return removed, nil
}

// Reload rebuilds the lexical index from the document store.
// Returns the number of chunks indexed.
func (c *Client) Reload(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index.reload", start, err) }()

	n, err = c.docSvc.Reload(ctx)
	if err != nil {
		return 0, fmt.Errorf("reload: %w", err)
	}
	return n, nil
}

func toInternalMetadata(m Metadata) domain.Metadata {
	return domain.NewMetadata(m.Source, m.Category, m.Client)
}

func fromInternalMetadata(m domain.Metadata) Metadata {
	var out Metadata
	out.Source, _ = m.Get(domain.MetaSource)
	out.Category, _ = m.Get(domain.MetaCategory)
	out.Client, _ = m.Get(domain.MetaClient)
	return out
}

func fromInternalDocument(d *domain.Document) Document {
	return Document{
		ID:         d.ID,
		Filename:   d.Filename,
		FileType:   d.FileType,
		Metadata:   fromInternalMetadata(d.Metadata),
		UploadedAt: d.UploadedAt,
		ChunkCount: d.ChunkCount,
	}
}
