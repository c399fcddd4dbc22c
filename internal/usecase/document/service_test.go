package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/docmind/internal/chunker"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/lexical"
)

type fixture struct {
	svc  *Service
	repo *memRepo
	vecs *mockVectors
	lex  *lexical.Index
	emb  *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: newMemRepo(),
		vecs: newMockVectors(),
		lex:  lexical.New(),
		emb:  &fakeEmbedder{},
	}
	f.svc = New(f.repo, f.vecs, f.lex, f.emb, chunker.Params{Size: 10, Overlap: 3})
	f.svc.newID = sequentialIDs()
	return f
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix
	}
	return strings.Join(parts, " ")
}

func lexIDs(t *testing.T, ix *lexical.Index, q string) []string {
	t.Helper()
	hits, err := ix.Query(context.Background(), q, 100)
	if err != nil {
		t.Fatalf("lexical query: %v", err)
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestIngest_Success(t *testing.T) {
	f := newFixture(t)
	meta := domain.NewMetadata("upload", "legal", "")

	doc, err := f.svc.Ingest(context.Background(), "alice", Upload{
		Filename: "policy.txt",
		Data:     []byte(words("retention", 25)),
		Metadata: meta,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == 0 || doc.ChunkCount != 4 {
		t.Fatalf("expected stored document with 4 chunks, got %+v", doc)
	}
	if doc.FileType != "txt" || doc.OwnerID != "alice" {
		t.Errorf("unexpected document fields: %+v", doc)
	}
	if len(f.vecs.upserted) != 4 {
		t.Errorf("expected 4 vectors, got %d", len(f.vecs.upserted))
	}
	if f.emb.batchCalls != 1 {
		t.Errorf("expected one batch embed call, got %d", f.emb.batchCalls)
	}
	cv := f.vecs.upserted["chunk-1"]
	if cv.Chunk.DocumentID != doc.ID || cv.Chunk.OwnerID != "alice" || cv.Chunk.ChunkIndex != 0 {
		t.Errorf("unexpected vector payload: %+v", cv.Chunk)
	}
	if v, _ := cv.Chunk.Metadata.Get(domain.MetaCategory); v != "legal" {
		t.Errorf("expected category metadata on payload, got %q", v)
	}
	if f.lex.Size() != 4 {
		t.Errorf("expected 4 lexical entries, got %d", f.lex.Size())
	}
	if got := lexIDs(t, f.lex, "retention"); len(got) != 4 {
		t.Errorf("expected all chunks searchable, got %v", got)
	}
}

func TestIngest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		upload  Upload
		wantErr error
	}{
		{"unsupported type", "alice", Upload{Filename: "a.exe", Data: []byte("x")}, domain.ErrUnsupportedFileType},
		{"empty text", "alice", Upload{Filename: "a.txt", Data: []byte("  \n\n ")}, domain.ErrEmptyDocument},
		{"broken docx", "alice", Upload{Filename: "a.docx", Data: []byte("not a zip")}, domain.ErrExtractionFailed},
		{"no owner", "", Upload{Filename: "a.txt", Data: []byte("hello")}, domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Ingest(context.Background(), tt.owner, tt.upload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(f.repo.docs) != 0 || f.lex.Size() != 0 {
				t.Error("rejected upload must not touch any store")
			}
		})
	}
}

func TestIngest_NonASCIIOnlyYieldsNoChunks(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ingest(context.Background(), "alice", Upload{Filename: "a.md", Data: []byte("ÄÖÜ ßßß")})
	if !errors.Is(err, domain.ErrNoChunks) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	f.emb.err = domain.ErrEmbeddingProviderError

	_, err := f.svc.Ingest(context.Background(), "alice", Upload{Filename: "a.txt", Data: []byte("hello world")})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if len(f.repo.docs) != 0 {
		t.Error("document must not be stored when embedding fails")
	}
}

func TestIngest_VectorFailureCompensates(t *testing.T) {
	f := newFixture(t)
	f.vecs.upsertErr = domain.Unavailable("vector upsert", errors.New("connection reset"))

	_, err := f.svc.Ingest(context.Background(), "alice", Upload{Filename: "a.txt", Data: []byte("hello world")})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(f.repo.docs) != 0 || len(f.repo.deleted) != 1 {
		t.Errorf("expected document rows removed, docs=%d deleted=%v", len(f.repo.docs), f.repo.deleted)
	}
	if f.lex.Size() != 0 {
		t.Error("lexical index must not see a failed upload")
	}
}

func TestIngest_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = domain.Unavailable("insert document", errors.New("disk full"))

	_, err := f.svc.Ingest(context.Background(), "alice", Upload{Filename: "a.txt", Data: []byte("hello world")})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(f.vecs.upserted) != 0 {
		t.Error("vectors must not be written when the document store fails")
	}
}

func TestDelete_RemovesEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keep, err := f.svc.Ingest(ctx, "alice", Upload{Filename: "keep.txt", Data: []byte("alpha beta gamma")})
	if err != nil {
		t.Fatalf("ingest keep: %v", err)
	}
	gone, err := f.svc.Ingest(ctx, "alice", Upload{Filename: "gone.txt", Data: []byte("alpha delta")})
	if err != nil {
		t.Fatalf("ingest gone: %v", err)
	}

	removed, err := f.svc.Delete(ctx, "alice", gone.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 chunk removed, got %d", removed)
	}
	if got := lexIDs(t, f.lex, "delta"); len(got) != 0 {
		t.Errorf("deleted chunk still searchable: %v", got)
	}
	if got := lexIDs(t, f.lex, "alpha"); len(got) != 1 {
		t.Errorf("expected surviving chunk only, got %v", got)
	}
	if _, err := f.svc.Get(ctx, "alice", keep.ID); err != nil {
		t.Errorf("surviving document lost: %v", err)
	}
	if len(f.vecs.upserted) != 1 {
		t.Errorf("expected 1 vector left, got %d", len(f.vecs.upserted))
	}
}

func TestDelete_ForeignDocumentNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "alice", Upload{Filename: "a.txt", Data: []byte("secret plans")})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	_, err = f.svc.Delete(ctx, "mallory", doc.ID)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if len(f.vecs.deleted) != 0 || f.lex.Size() != 1 {
		t.Error("foreign delete must not touch any store")
	}
}

func TestDelete_VectorFailureKeepsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "alice", Upload{Filename: "a.txt", Data: []byte("hello")})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	f.vecs.deleteErr = domain.Unavailable("vector delete", errors.New("timeout"))

	if _, err := f.svc.Delete(ctx, "alice", doc.ID); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "alice", doc.ID); err != nil {
		t.Errorf("rows must survive a failed vector delete: %v", err)
	}
}

func TestList_OwnerScopedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"one.txt", "two.txt"} {
		if _, err := f.svc.Ingest(ctx, "alice", Upload{Filename: name, Data: []byte("text")}); err != nil {
			t.Fatalf("ingest %s: %v", name, err)
		}
	}
	if _, err := f.svc.Ingest(ctx, "bob", Upload{Filename: "bob.txt", Data: []byte("text")}); err != nil {
		t.Fatalf("ingest bob: %v", err)
	}

	docs, err := f.svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].Filename != "two.txt" {
		t.Fatalf("expected [two.txt one.txt], got %+v", docs)
	}
}

func TestReload_RebuildsFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Ingest(ctx, "alice", Upload{Filename: "a.txt", Data: []byte(words("archive", 12))}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// A fresh process starts with an empty index.
	fresh := lexical.New()
	svc := New(f.repo, f.vecs, fresh, f.emb, chunker.Params{Size: 10, Overlap: 3})

	n, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || fresh.Size() != 2 {
		t.Fatalf("expected 2 chunks reloaded, got n=%d size=%d", n, fresh.Size())
	}
	if got := lexIDs(t, fresh, "archive"); len(got) != 2 {
		t.Errorf("expected reloaded chunks searchable, got %v", got)
	}
}
