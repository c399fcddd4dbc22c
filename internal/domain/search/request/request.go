package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 50
)

// Request is a validated search query scoped to one owner.
type Request struct {
	query   string
	ownerID string
	topK    int
	filters filter.Set
}

// Limits bounds top_k. Zero fields take the package defaults.
type Limits struct {
	DefaultTopK int
	MaxTopK     int
}

// New validates search parameters. topK 0 falls back to DefaultTopK.
func New(query, ownerID string, topK int, filters filter.Set) (Request, error) {
	return NewWithLimits(query, ownerID, OptionalTopK(topK), filters, Limits{})
}

// OptionalTopK maps 0 to an unset top_k.
func OptionalTopK(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// NewWithLimits validates search parameters against configured top_k bounds.
// A nil topK takes lim.DefaultTopK; any explicit value must be in [1, MaxTopK].
func NewWithLimits(query, ownerID string, topK *int, filters filter.Set, lim Limits) (Request, error) {
	if lim.DefaultTopK <= 0 {
		lim.DefaultTopK = DefaultTopK
	}
	if lim.MaxTopK <= 0 {
		lim.MaxTopK = MaxTopK
	}
	if strings.TrimSpace(query) == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	if ownerID == "" {
		return Request{}, fmt.Errorf("owner is required: %w", domain.ErrUnauthorized)
	}
	k := lim.DefaultTopK
	if topK != nil {
		k = *topK
	}
	if k < 1 || k > lim.MaxTopK {
		return Request{}, fmt.Errorf("top_k must be between 1 and %d: %w", lim.MaxTopK, domain.ErrInvalidQuery)
	}
	return Request{query: query, ownerID: ownerID, topK: k, filters: filters}, nil
}

// Query returns the search text.
func (r *Request) Query() string { return r.query }

// OwnerID returns the requesting user.
func (r *Request) OwnerID() string { return r.ownerID }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// FetchK returns the candidate depth for each retrieval leg.
func (r *Request) FetchK() int { return r.topK * 3 }

// Filters returns the exact-match metadata filters.
func (r *Request) Filters() filter.Set { return r.filters }
