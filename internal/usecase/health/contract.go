package health

import "context"

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// LexicalSizer reports how many chunks the lexical index holds.
type LexicalSizer interface {
	Size() int
}
