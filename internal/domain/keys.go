package domain

// KeyPrefix namespaces every key docmind writes to Redis.
// Overridden once at startup from storage.key_prefix.
var KeyPrefix = "docmind:"

// ChunkKeyPrefix returns the hash key prefix for chunk vectors.
func ChunkKeyPrefix() string { return KeyPrefix + "chunk:" }

// ChunkKey returns the hash key of a chunk vector entry.
func ChunkKey(externalID string) string { return ChunkKeyPrefix() + externalID }

// ChunkIndexName returns the FT index name over chunk vectors.
func ChunkIndexName() string { return KeyPrefix + "chunks:idx" }
