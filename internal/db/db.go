// Package db defines the storage facade over a Redis 8 server with the
// query engine loaded. Consumers depend on the narrow sub-interfaces.
package db

import (
	"context"
	"time"
)

// Store is the facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers use narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash operations used for chunk vectors and payloads.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// HGetAllMulti returns one map per key, in key order. A missing key yields an empty map.
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) (int, error)
}

// KVStore provides plain string values with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs KNN queries over an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
