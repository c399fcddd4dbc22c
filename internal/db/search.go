package db

// TagMatch is an exact, case-sensitive match on a TAG field.
type TagMatch struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
// Tags are ANDed and applied as a pre-filter before the KNN step.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Tags         []TagMatch
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is cosine similarity clamped to [0, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
