// Package records defines the record type flowing through the pipeline.
//
// A Record is a single semi-structured input row: one JSON object from a
// catalog (song metadata) or usage (event log) file. Fields may be missing;
// a missing field and an explicit null are treated the same everywhere
// downstream. Values are whatever encoding/json produced: string, bool,
// json.Number (the parser decodes with UseNumber), nested maps/slices for
// fields nobody projects.
//
// The typed accessors perform only the minimal coercion the builders need
// (json.Number → int64/float64, numeric → display string). They never
// guess: a value that does not fit the requested type reports !ok and the
// caller decides whether that drops the record.
package records

import (
	"encoding/json"
	"strconv"
)

// Record is one semi-structured input row keyed by field name.
type Record map[string]any

// Has reports whether field is present with a non-nil value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns the string form of field. Numbers are formatted, so a
// numeric user_id still keys a dimension consistently. Missing, nil, and
// empty-string values report !ok.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case json.Number:
		return t.String(), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// Int64 returns field as an int64. Accepts json.Number, integral floats,
// and numeric strings (usage logs carry ts as a bare number, but userId
// arrives as a quoted string).
func (r Record) Int64(field string) (int64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		// "1.54106E12"-style numbers from lossy producers.
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
		return 0, false
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
		return 0, false
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Float64 returns field as a float64 (duration, latitude, longitude).
func (r Record) Float64(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Clone returns a shallow copy. Builders that rename or inject fields copy
// first so the shared input slice stays immutable across builders.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
