// Package document persists documents and their chunk text in SQLite.
// It is the source of truth the lexical index is rebuilt from at startup.
package document

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/repository/document/migrations"
)

// Repo is the SQLite-backed document store.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies migrations.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Repo, error) {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		dsn += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	r := &Repo{db: sqlDB, now: time.Now}
	if err := r.migrate(migrations.FS); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return r, nil
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks that the database answers.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.Unavailable("document store ping", err)
	}
	return nil
}

func (r *Repo) migrate(fsys embed.FS) error {
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := r.applyMigration(version, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repo) applyMigration(version int, body string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(body); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateWithChunks inserts the document and all its chunks in one transaction
// and returns the stored document with its assigned ID. Chunk DocumentIDs are
// filled in from the new row.
func (r *Repo) CreateWithChunks(ctx context.Context, doc domain.Document, chunks []domain.Chunk) (domain.Document, error) {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = r.now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Document{}, domain.Unavailable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (owner_id, filename, file_type, source, category, client, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.OwnerID, doc.Filename, doc.FileType,
		nullable(doc.Metadata.Source), nullable(doc.Metadata.Category), nullable(doc.Metadata.Client),
		doc.UploadedAt.UnixMilli(),
	)
	if err != nil {
		return domain.Document{}, domain.Unavailable("insert document", err)
	}
	if doc.ID, err = res.LastInsertId(); err != nil {
		return domain.Document{}, domain.Unavailable("document id", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (external_id, document_id, chunk_index, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return domain.Document{}, domain.Unavailable("prepare chunk insert", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		if _, err := stmt.ExecContext(ctx, chunks[i].ExternalID, doc.ID, chunks[i].ChunkIndex, chunks[i].Content); err != nil {
			return domain.Document{}, domain.Unavailable("insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Document{}, domain.Unavailable("commit document", err)
	}
	doc.ChunkCount = len(chunks)
	return doc, nil
}

const documentColumns = `d.id, d.owner_id, d.filename, d.file_type, d.source, d.category, d.client, d.uploaded_at,
	(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)`

// Get returns the document if ownerID owns it. Foreign and missing
// documents both yield ErrDocumentNotFound.
func (r *Repo) Get(ctx context.Context, ownerID string, id int64) (domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents d WHERE d.id = ? AND d.owner_id = ?`, id, ownerID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, domain.Unavailable("get document", err)
	}
	return doc, nil
}

// List returns the owner's documents, newest first.
func (r *Repo) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents d WHERE d.owner_id = ?
		 ORDER BY d.uploaded_at DESC, d.id DESC`, ownerID)
	if err != nil {
		return nil, domain.Unavailable("list documents", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.Unavailable("scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list documents", err)
	}
	return docs, nil
}

// ChunkIDs returns the external ids of a document's chunks in chunk order.
func (r *Repo) ChunkIDs(ctx context.Context, documentID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT external_id FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, domain.Unavailable("list chunk ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Unavailable("scan chunk id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list chunk ids", err)
	}
	return ids, nil
}

// Delete removes the document and its chunks in one transaction.
// Chunk rows go explicitly, independent of the connection's foreign_keys state.
func (r *Repo) Delete(ctx context.Context, ownerID string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("delete document", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return domain.Unavailable("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Unavailable("delete document", err)
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return domain.Unavailable("delete chunks", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Unavailable("delete document", err)
	}
	return nil
}

// AllChunks returns every stored chunk in insertion order.
func (r *Repo) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.external_id, c.document_id, c.chunk_index, c.content, d.owner_id, d.filename,
		        d.source, d.category, d.client
		 FROM chunks c JOIN documents d ON d.id = c.document_id
		 ORDER BY c.id`)
	if err != nil {
		return nil, domain.Unavailable("load chunks", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var (
			c                        domain.Chunk
			source, category, client sql.NullString
		)
		if err := rows.Scan(&c.ExternalID, &c.DocumentID, &c.ChunkIndex, &c.Content,
			&c.OwnerID, &c.Filename, &source, &category, &client); err != nil {
			return nil, domain.Unavailable("scan chunk", err)
		}
		c.Metadata = domain.NewMetadata(source.String, category.String, client.String)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("load chunks", err)
	}
	return out, nil
}

// VerifyOwned returns the subset of ids whose documents belong to ownerID
// and whose metadata matches every filter.
func (r *Repo) VerifyOwned(ctx context.Context, ownerID string, ids []string, filters map[string]string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var q strings.Builder
	q.WriteString(`SELECT c.external_id FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE d.owner_id = ? AND c.external_id IN (?`)
	q.WriteString(strings.Repeat(", ?", len(ids)-1))
	q.WriteString(")")

	args := make([]any, 0, len(ids)+1+len(filters))
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, k := range domain.MetadataKeys {
		if v, ok := filters[k]; ok && v != "" {
			// k comes from the fixed key list, never from input
			q.WriteString(" AND d." + k + " = ?")
			args = append(args, v)
		}
	}

	rows, err := r.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, domain.Unavailable("verify chunk owner", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Unavailable("scan chunk id", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("verify chunk owner", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (domain.Document, error) {
	var (
		doc                      domain.Document
		source, category, client sql.NullString
		uploaded                 int64
	)
	if err := s.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.FileType,
		&source, &category, &client, &uploaded, &doc.ChunkCount); err != nil {
		return domain.Document{}, err
	}
	doc.Metadata = domain.NewMetadata(source.String, category.String, client.String)
	doc.UploadedAt = time.UnixMilli(uploaded).UTC()
	return doc, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
