package docmind

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs      []string
	password   string
	sqlitePath string

	embedder Embedder

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	chunkSize        int
	chunkOverlap     int

	alpha         *float64
	minSimilarity float64
	minScore      float64
	defaultTopK   int
	maxTopK       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the vector store (Redis with the search module).
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite sets the document store path. Defaults to "docmind.db";
// ":memory:" keeps documents for the lifetime of the client only.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sqlitePath = path
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the embedding dimension. Required.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithChunking sets the word window size and overlap. Defaults: 500/50.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	})
}

// WithAlpha sets the semantic weight in fusion, in [0, 1]. Default: 0.7.
func WithAlpha(alpha float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.alpha = &alpha
	})
}

// WithMinSimilarity drops semantic hits below the given similarity.
func WithMinSimilarity(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSimilarity = v
	})
}

// WithMinScore drops fused results scoring below v.
func WithMinScore(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minScore = v
	})
}

// WithTopK sets the top_k used when SearchOptions.TopK is zero and the
// largest top_k accepted. Defaults: 10/50.
func WithTopK(defaultTopK, maxTopK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
