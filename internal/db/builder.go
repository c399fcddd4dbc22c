package db

import "strings"

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building a hash-backed FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Kind: FieldNumeric})
	return b
}

// Tag adds a case-sensitive TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Kind: FieldTag, CaseSensitive: true})
	return b
}

// VectorHNSW adds an HNSW vector field.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efBuild int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name, Kind: FieldVector,
		Algo: VectorHNSW, Dim: dim, Distance: distance,
		M: m, EFBuild: efBuild,
	})
	return b
}

// VectorFlat adds a brute-force vector field.
func (b *IndexBuilder) VectorFlat(name string, dim int, distance DistanceMetric) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name: name, Kind: FieldVector,
		Algo: VectorFlat, Dim: dim, Distance: distance,
	})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// String returns a debug representation resembling FT.CREATE.
func (d *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", d.Name, "ON", "HASH"}
	if len(d.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, d.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for i := range d.Fields {
		f := &d.Fields[i]
		parts = append(parts, f.Name)
		switch f.Kind {
		case FieldTag:
			parts = append(parts, "TAG")
		case FieldNumeric:
			parts = append(parts, "NUMERIC")
		case FieldVector:
			parts = append(parts, "VECTOR", string(f.Algo))
		}
	}
	return strings.Join(parts, " ")
}
