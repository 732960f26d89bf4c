// Package config provides configuration models and helpers for pipeline runs.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sink.kind",
// "transform[1].kind"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.CatalogDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.catalog_dir",
				Message:  "file source requires a non-empty catalog_dir",
			})
		}
		if strings.TrimSpace(s.File.UsageDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.usage_dir",
				Message:  "file source requires a non-empty usage_dir",
			})
		}

	case "s3":
		if strings.TrimSpace(s.S3.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.s3.bucket",
				Message:  "s3 source requires a non-empty bucket",
			})
		}
		if strings.TrimSpace(s.S3.CatalogPrefix) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.s3.catalog_prefix",
				Message:  "s3 source requires a non-empty catalog_prefix",
			})
		}
		if strings.TrimSpace(s.S3.UsagePrefix) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.s3.usage_prefix",
				Message:  "s3 source requires a non-empty usage_prefix",
			})
		}
		if strings.TrimSpace(s.S3.Region) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.s3.region",
				Message:  "no region set; falling back to AWS_REGION / shared config",
			})
		}

	default:
		// Unknown kinds are warnings (forward compatibility).
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	return issues
}

// validateTransforms validates the optional pre-build transform chain.
func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"normalize": {},
		"require":   {},
	}
	for i, t := range ts {
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform[%d].kind", i),
				Message:  "transform.kind must not be empty",
			})
			continue
		}
		if _, ok := known[t.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("transform[%d].kind", i),
				Message:  fmt.Sprintf("unknown transform kind %q", t.Kind),
			})
		}
		if t.Kind == "require" && len(t.Options.StringSlice("fields")) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform[%d].options.fields", i),
				Message:  "require transform needs a non-empty fields list",
			})
		}
	}

	return issues
}

// validateSink validates sink configuration.
func validateSink(s Sink) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  "sink.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "parquet":
		if strings.TrimSpace(s.Parquet.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.parquet.dir",
				Message:  "parquet sink requires a non-empty dir",
			})
		}
		switch s.Parquet.Compression {
		case "", "snappy", "gzip", "none":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.parquet.compression",
				Message:  fmt.Sprintf("unsupported compression %q (want snappy, gzip, or none)", s.Parquet.Compression),
			})
		}

	case "postgres", "sqlite":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.db.dsn",
				Message:  fmt.Sprintf("%s sink requires a non-empty dsn", s.Kind),
			})
		}

	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	return issues
}

// validateRuntime validates runtime knobs.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ExtractWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.extract_workers",
			Message:  "extract_workers must be >= 0 (0 means default)",
		})
	}
	if r.BuildWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.build_workers",
			Message:  "build_workers must be >= 0 (0 means default)",
		})
	}

	return issues
}
