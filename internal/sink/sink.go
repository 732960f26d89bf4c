// Package sink contains sink-agnostic contracts and value encoding shared by
// the concrete sinks (parquet files, postgres, sqlite).
//
// A sink persists fully materialized relations. Its contract per relation is
// atomic-or-absent: either the relation lands completely or the target is
// left without it; relations never land half-written. Different relations are
// independent — one failing says nothing about the others.
package sink

import (
	"context"
	"time"

	"starlake/internal/star"
	"starlake/pkg/records"
)

// Sink persists relations. Implementations are safe for concurrent Write
// calls on different relations.
type Sink interface {
	Write(ctx context.Context, rel star.Relation) error
	Close() error
}

// Value extracts the typed value of one column from a record, or nil when the
// field is missing, null, or does not coerce to the declared column type.
// No field-level validation happens upstream, so a malformed latitude simply
// becomes NULL in the output rather than failing the run.
func Value(rec records.Record, col star.Column) any {
	switch col.Type {
	case star.TypeString:
		if s, ok := rec.String(col.Name); ok {
			return s
		}
	case star.TypeInt64:
		if i, ok := rec.Int64(col.Name); ok {
			return i
		}
	case star.TypeFloat64:
		if f, ok := rec.Float64(col.Name); ok {
			return f
		}
	case star.TypeTimestamp:
		if t, ok := rec[col.Name].(time.Time); ok {
			return t
		}
	}
	return nil
}

// Row encodes one record into a positional row aligned with the relation's
// column order, ready for a database loader.
func Row(rec records.Record, cols []star.Column) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = Value(rec, c)
	}
	return row
}
