package filter

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// Set is a validated collection of exact-match metadata conditions.
// All conditions must hold (AND semantics); matching is case-sensitive.
type Set struct {
	conds map[string]string
}

// New validates filters. Empty values are dropped; unknown keys are rejected.
func New(raw map[string]string) (Set, error) {
	conds := make(map[string]string, len(raw))
	for k, v := range raw {
		if !isKnownKey(k) {
			return Set{}, fmt.Errorf("unknown filter key %q: %w", k, domain.ErrInvalidQuery)
		}
		if v == "" {
			continue
		}
		conds[k] = v
	}
	return Set{conds: conds}, nil
}

func isKnownKey(k string) bool {
	for _, known := range domain.MetadataKeys {
		if k == known {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set has no conditions.
func (s Set) IsEmpty() bool { return len(s.conds) == 0 }

// Map returns a copy of the conditions.
func (s Set) Map() map[string]string {
	out := make(map[string]string, len(s.conds))
	for k, v := range s.conds {
		out[k] = v
	}
	return out
}

// Keys returns the filtered keys in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.conds))
	for k := range s.conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Matches reports whether metadata satisfies every condition.
func (s Set) Matches(m domain.Metadata) bool { return m.Matches(s.conds) }
