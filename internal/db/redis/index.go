package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/docmind/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. Indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.do(ctx, s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists checks via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def == nil {
		return nil, errors.New("index definition is required")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	args := []string{f.Name}

	switch f.Kind {
	case db.FieldNumeric:
		args = append(args, "NUMERIC")
	case db.FieldTag:
		args = append(args, "TAG")
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case db.FieldVector:
		args = append(args, buildVectorFieldArgs(f)...)
	default:
		return nil, errors.New("unknown field kind for " + f.Name)
	}
	return args, nil
}

func buildVectorFieldArgs(f *db.IndexField) []string {
	algo := f.Algo
	if algo == "" {
		algo = db.VectorFlat
	}
	distance := f.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	switch algo {
	case db.VectorHNSW:
		if f.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.M))
		}
		if f.EFBuild > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFBuild))
		}
	case db.VectorFlat:
		if f.BlockSize > 0 {
			attrs = append(attrs, "BLOCK_SIZE", strconv.Itoa(f.BlockSize))
		}
	}

	out := make([]string, 0, 3+len(attrs))
	out = append(out, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}
