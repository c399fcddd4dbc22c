package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for one request. The transport layer attaches it,
// services record into it, and the handler reports it in response headers.
// Safe for concurrent use: the search legs may record from different goroutines.
type EmbeddingUsage struct {
	mu          sync.Mutex
	totalTokens int
	calls       int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if none is attached.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records one embedding call. A nil receiver is a no-op.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.totalTokens += n
	u.calls++
	u.mu.Unlock()
}

// TotalTokens returns tokens recorded so far.
func (u *EmbeddingUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens
}

// Used reports whether any embedding call was recorded, cache hits included.
func (u *EmbeddingUsage) Used() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls > 0
}
