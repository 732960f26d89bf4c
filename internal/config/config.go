// Package config defines the canonical, JSON-serializable configuration model
// for the star-schema pipeline. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other sources)
// and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":    "songplays_nightly",
//	  "source": { "kind": "s3", "s3": { "bucket": "udacity-dend", "catalog_prefix": "song_data/", "usage_prefix": "log_data/" } },
//	  "transform": [ { "kind": "normalize" } ],
//	  "sink":   { "kind": "parquet", "parquet": { "dir": "/data/lake" } }
//	}
package config

import "encoding/json"

// Pipeline describes one full run in JSON. It is the top-level object decoded
// from a pipeline file.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source describes where the catalog and usage record sets come from.
	Source Source `json:"source"`

	// Transform lists optional pre-build transformations applied to both
	// record sets after parsing (e.g. "normalize"). The five relation builders
	// themselves are fixed and not configured here.
	Transform []Transform `json:"transform"`

	// Sink describes where the five relations are written.
	Sink Sink `json:"sink"`

	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls concurrency of the extract and build/write stages.
type RuntimeConfig struct {
	// ExtractWorkers bounds concurrent object reads per record set.
	ExtractWorkers int `json:"extract_workers"`
	// BuildWorkers bounds concurrent relation build+write goroutines.
	BuildWorkers int `json:"build_workers"`
}

// Source identifies the data source. Both record sets live under one root so
// a single kind covers them.
type Source struct {
	// Kind selects the source implementation: "file" or "s3".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// S3 carries options for the "s3" source kind.
	S3 SourceS3 `json:"s3"`
}

// SourceFile holds configuration for the "file" source kind. The two dirs are
// walked recursively for *.json files.
type SourceFile struct {
	CatalogDir string `json:"catalog_dir"`
	UsageDir   string `json:"usage_dir"`
}

// SourceS3 holds configuration for the "s3" source kind.
type SourceS3 struct {
	Bucket        string `json:"bucket"`
	Region        string `json:"region"`
	CatalogPrefix string `json:"catalog_prefix"`
	UsagePrefix   string `json:"usage_prefix"`
}

// Transform defines a single optional pre-build transformation step.
type Transform struct {
	// Kind selects the transform implementation (e.g. "normalize").
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected transform.
	Options Options `json:"options"`
}

// Sink selects where relations are persisted.
type Sink struct {
	// Kind selects the sink implementation: "parquet", "postgres", "sqlite".
	Kind string `json:"kind"`

	// Parquet carries options for the "parquet" sink kind.
	Parquet SinkParquet `json:"parquet"`

	// DB carries options for the database sink kinds.
	DB DBConfig `json:"db"`
}

// SinkParquet configures the partitioned columnar file sink.
type SinkParquet struct {
	// Dir is the output root; each relation becomes a directory under it.
	Dir string `json:"dir"`

	// Compression is the parquet codec: "snappy" (default), "gzip", "none".
	Compression string `json:"compression"`

	// Overwrite replaces an existing relation directory. When false, an
	// existing target is a write error.
	Overwrite bool `json:"overwrite"`
}

// DBConfig configures a relational warehouse sink.
type DBConfig struct {
	// DSN is the connection string (pgxpool URL for postgres, file path or
	// file: URL for sqlite).
	DSN string `json:"dsn"`

	// Schema optionally prefixes table names (postgres only), e.g. "public".
	Schema string `json:"schema"`

	// AutoCreateTables creates the five star tables if absent before loading.
	AutoCreateTables bool `json:"auto_create_tables"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
