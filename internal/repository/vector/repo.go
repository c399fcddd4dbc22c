// Package vector stores chunk embeddings and payloads as Redis hashes
// indexed by an HNSW vector field, and serves owner-scoped KNN queries.
package vector

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docmind/internal/db"
	"github.com/kailas-cloud/docmind/internal/domain"
)

// Hash field names.
const (
	FieldContent    = "content"
	FieldDocumentID = "document_id"
	FieldOwnerID    = "uploaded_by"
	FieldFilename   = "filename"
	FieldChunkIndex = "chunk_index"
	FieldVector     = "vector"
)

var payloadFields = []string{
	FieldContent, FieldDocumentID, FieldOwnerID, FieldFilename, FieldChunkIndex,
	domain.MetaSource, domain.MetaCategory, domain.MetaClient,
}

// store is the consumer interface for the vector repository (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes the HNSW graph.
type HNSWConfig struct {
	M              int
	EFConstruction int
}

// Hit is a semantic match with its payload.
type Hit struct {
	Chunk      domain.Chunk
	Similarity float64
}

// Repo implements the vector service contract on Redis.
type Repo struct {
	store store
	dim   int
}

// New creates a vector repository for embeddings of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// EnsureIndex creates the chunk index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context, hnsw HNSWConfig) error {
	name := domain.ChunkIndexName()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return domain.Unavailable("check chunk index", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(name, r.dim, hnsw)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return domain.Unavailable("create chunk index", err)
	}
	return nil
}

func buildIndex(name string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(name).
		Prefix(domain.ChunkKeyPrefix()).
		Tag(FieldOwnerID).
		Tag(domain.MetaSource).
		Tag(domain.MetaCategory).
		Tag(domain.MetaClient).
		Numeric(FieldDocumentID).
		VectorHNSW(FieldVector, dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruction).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build chunk index: %w", err)
	}
	return def, nil
}

// Upsert writes chunk payloads and vectors in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, items []domain.ChunkVector) error {
	if len(items) == 0 {
		return nil
	}
	hs := make([]db.HashSetItem, len(items))
	for i, it := range items {
		if err := domain.CheckDimensions(it.Vector, r.dim); err != nil {
			return fmt.Errorf("chunk %s: %w", it.Chunk.ExternalID, err)
		}
		fields := chunkToFields(it.Chunk)
		fields[FieldVector] = vectorToBytes(it.Vector)
		hs[i] = db.HashSetItem{Key: domain.ChunkKey(it.Chunk.ExternalID), Fields: fields}
	}
	if err := r.store.HSetMulti(ctx, hs); err != nil {
		return domain.Unavailable("upsert chunk vectors", err)
	}
	return nil
}

// Search returns up to limit nearest chunks owned by ownerID that match
// every filter, nearest first. Hits below floor are dropped.
func (r *Repo) Search(
	ctx context.Context, vec []float32, limit int,
	ownerID string, filters map[string]string, floor float64,
) ([]Hit, error) {
	tags := []db.TagMatch{{Field: FieldOwnerID, Value: ownerID}}
	for _, k := range domain.MetadataKeys {
		if v, ok := filters[k]; ok && v != "" {
			tags = append(tags, db.TagMatch{Field: k, Value: v})
		}
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    domain.ChunkIndexName(),
		VectorField:  FieldVector,
		Tags:         tags,
		Vector:       vec,
		K:            limit,
		ReturnFields: payloadFields,
	})
	if err != nil {
		return nil, domain.Unavailable("vector search", err)
	}
	if sr == nil {
		return nil, nil
	}

	prefix := domain.ChunkKeyPrefix()
	hits := make([]Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if e.Score < floor {
			continue
		}
		c := fieldsToChunk(strings.TrimPrefix(e.Key, prefix), e.Fields)
		hits = append(hits, Hit{Chunk: c, Similarity: e.Score})
	}
	return hits, nil
}

// Retrieve loads payloads by external id. Unknown ids are absent from the map.
func (r *Repo) Retrieve(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	if len(ids) == 0 {
		return map[string]domain.Chunk{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.ChunkKey(id)
	}
	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, domain.Unavailable("retrieve chunks", err)
	}

	out := make(map[string]domain.Chunk, len(ids))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		out[ids[i]] = fieldsToChunk(ids[i], row)
	}
	return out, nil
}

// Delete removes chunk entries by external id.
func (r *Repo) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = domain.ChunkKey(id)
	}
	if _, err := r.store.DelMulti(ctx, keys); err != nil {
		return domain.Unavailable("delete chunk vectors", err)
	}
	return nil
}

func chunkToFields(c domain.Chunk) map[string]string {
	fields := map[string]string{
		FieldContent:    c.Content,
		FieldDocumentID: strconv.FormatInt(c.DocumentID, 10),
		FieldOwnerID:    c.OwnerID,
		FieldFilename:   c.Filename,
		FieldChunkIndex: strconv.Itoa(c.ChunkIndex),
	}
	for k, v := range c.Metadata.Map() {
		fields[k] = v
	}
	return fields
}

func fieldsToChunk(id string, f map[string]string) domain.Chunk {
	docID, _ := strconv.ParseInt(f[FieldDocumentID], 10, 64)
	idx, _ := strconv.Atoi(f[FieldChunkIndex])
	return domain.Chunk{
		ExternalID: id,
		DocumentID: docID,
		OwnerID:    f[FieldOwnerID],
		Filename:   f[FieldFilename],
		Content:    f[FieldContent],
		ChunkIndex: idx,
		Metadata:   domain.NewMetadata(f[domain.MetaSource], f[domain.MetaCategory], f[domain.MetaClient]),
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
