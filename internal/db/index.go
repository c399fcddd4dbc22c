package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by vector fields.
type DistanceMetric string

// Supported distance metrics.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the ANN structure for a vector field.
type VectorAlgorithm string

// Supported vector algorithms.
const (
	VectorHNSW VectorAlgorithm = "HNSW"
	VectorFlat VectorAlgorithm = "FLAT"
)

// FieldKind enumerates supported schema field kinds.
type FieldKind int

// Schema field kinds.
const (
	FieldNumeric FieldKind = iota
	FieldTag
	FieldVector
)

// IndexField describes a single field in an FT schema.
type IndexField struct {
	Name string
	Kind FieldKind

	CaseSensitive bool // TAG

	Algo      VectorAlgorithm // VECTOR
	Dim       int
	Distance  DistanceMetric
	M         int // HNSW max edges per node
	EFBuild   int // HNSW EF_CONSTRUCTION
	BlockSize int // FLAT
}

// IndexDefinition is a complete hash-backed FT index definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(d.Name) {
		return fmt.Errorf("index name %q contains invalid characters", d.Name)
	}
	if len(d.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true

		if f.Kind == FieldVector && f.Dim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
