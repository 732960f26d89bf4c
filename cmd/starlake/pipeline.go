// Package main wires the pipeline end-to-end: sources, parser, optional
// pre-build transforms, the five relation builders, and the configured sink.
// This file keeps the CLI layer thin: it depends only on the source and sink
// interfaces and never imports drivers directly except to construct them.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"starlake/internal/config"
	"starlake/internal/datasource"
	"starlake/internal/datasource/file"
	"starlake/internal/datasource/s3"
	"starlake/internal/metrics"
	jsonparser "starlake/internal/parser/json"
	"starlake/internal/sink"
	"starlake/internal/sink/parquet"
	"starlake/internal/sink/postgres"
	"starlake/internal/sink/sqlite"
	"starlake/internal/star"
	"starlake/internal/transformer"
	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

const (
	defaultExtractWorkers = 8
	firstThisMany         = 3 // unique error messages shown in summaries
)

// Function variables used to introduce test seams. In production these point
// at the real implementations; tests override them.
var (
	openSourcesFn = openSources
	newSinkFn     = newSink
)

// run executes one full pipeline: extract both record sets, derive the five
// relations, and persist them. Relations are independent; each build+write
// runs in its own goroutine and the first failure cancels the rest.
func run(ctx context.Context, spec config.Pipeline) error {
	catalogSrc, usageSrc, err := openSourcesFn(ctx, spec)
	if err != nil {
		return err
	}

	workers := pickInt(spec.Runtime.ExtractWorkers, getenvInt("EXTRACT_WORKERS", defaultExtractWorkers))

	catalogAgg := newErrAgg(firstThisMany)
	usageAgg := newErrAgg(firstThisMany)

	// Extract the two record sets concurrently; each fans out over its own
	// object listing.
	var catalog, usage []records.Record
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		start := time.Now()
		catalog, err = extract(ectx, catalogSrc, workers, catalogAgg)
		metrics.RecordStep(spec.Job, "extract_catalog", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("extract catalog: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		start := time.Now()
		usage, err = extract(ectx, usageSrc, workers, usageAgg)
		metrics.RecordStep(spec.Job, "extract_usage", err, time.Since(start))
		if err != nil {
			return fmt.Errorf("extract usage: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	logParseSummary("catalog", catalogAgg)
	logParseSummary("usage", usageAgg)
	metrics.RecordRows(spec.Job, "catalog", "extracted", int64(len(catalog)))
	metrics.RecordRows(spec.Job, "usage", "extracted", int64(len(usage)))
	metrics.RecordRows(spec.Job, "catalog", "parse_errors", int64(catalogAgg.count))
	metrics.RecordRows(spec.Job, "usage", "parse_errors", int64(usageAgg.count))
	log.Printf("extracted: catalog=%d usage=%d parse_errors=%d",
		len(catalog), len(usage), catalogAgg.count+usageAgg.count)

	// Usage logs arrive camelCased; rename once so every builder sees the
	// canonical snake_case fields.
	usage = star.RenameUsage(usage)

	chain, err := buildChain(spec.Transform)
	if err != nil {
		return err
	}
	catalog = chain.Apply(catalog)
	usage = chain.Apply(usage)

	s, err := newSinkFn(ctx, spec)
	if err != nil {
		return err
	}
	defer s.Close()

	buildWorkers := pickInt(spec.Runtime.BuildWorkers, getenvInt("BUILD_WORKERS", 5))

	var (
		mu    sync.Mutex
		stats star.JoinStats
	)

	builders := []struct {
		step  string
		build func() star.Relation
	}{
		{"songs", func() star.Relation { return star.Songs(catalog) }},
		{"artists", func() star.Relation { return star.Artists(catalog) }},
		{"users", func() star.Relation { return star.Users(usage) }},
		{"time", func() star.Relation { return star.Times(usage) }},
		{"songplays", func() star.Relation {
			rel, js := star.Songplays(usage, catalog)
			mu.Lock()
			stats = js
			mu.Unlock()
			return rel
		}},
	}

	bg, bctx := errgroup.WithContext(ctx)
	bg.SetLimit(buildWorkers)
	for _, b := range builders {
		b := b
		bg.Go(func() error {
			start := time.Now()
			rel := b.build()
			err := s.Write(bctx, rel)
			metrics.RecordStep(spec.Job, "write_"+b.step, err, time.Since(start))
			if err != nil {
				return fmt.Errorf("write %s: %w", b.step, err)
			}
			metrics.RecordRows(spec.Job, rel.Name, "written", int64(len(rel.Rows)))
			log.Printf("relation %s: rows=%d", rel.Name, len(rel.Rows))
			return nil
		})
	}
	if err := bg.Wait(); err != nil {
		return err
	}

	metrics.RecordRows(spec.Job, "songplays", "matched", int64(stats.Matched))
	metrics.RecordRows(spec.Job, "songplays", "unmatched", int64(stats.Unmatched))
	metrics.RecordRows(spec.Job, "songplays", "dropped_ts", int64(stats.DroppedTS))
	log.Printf("join: plays=%d matched=%d unmatched=%d dropped_ts=%d",
		stats.Plays, stats.Matched, stats.Unmatched, stats.DroppedTS)
	return nil
}

// extract lists the source and parses every object into records. Listing
// order is preserved in the output, so dedup's keep-first stays deterministic
// regardless of which goroutine finishes first. Parse errors inside an object
// are fail-soft and aggregated; an unreadable object fails the run.
func extract(ctx context.Context, src datasource.Source, workers int, agg *errAgg) ([]records.Record, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	perFile := make([][]records.Record, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rc, err := src.Open(gctx, name)
			if err != nil {
				return fmt.Errorf("open %s: %w", name, err)
			}
			defer rc.Close()

			recs, err := jsonparser.DecodeAll(rc, jsonparser.Options{AllowArrays: true})
			if err != nil {
				// The object's remaining bytes are unusable but everything
				// decoded before the bad value is kept.
				agg.add(name + ": " + err.Error())
			}
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []records.Record
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	return out, nil
}

// openSources builds the catalog and usage sources for the configured kind.
// Both sets come from the same backend; only the root differs.
func openSources(ctx context.Context, spec config.Pipeline) (catalog, usage datasource.Source, err error) {
	switch spec.Source.Kind {
	case "file":
		return file.NewDir(spec.Source.File.CatalogDir), file.NewDir(spec.Source.File.UsageDir), nil
	case "s3":
		client, err := s3.NewClient(spec.Source.S3.Region)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 client: %w", err)
		}
		return s3.NewPrefix(client, spec.Source.S3.Bucket, spec.Source.S3.CatalogPrefix),
			s3.NewPrefix(client, spec.Source.S3.Bucket, spec.Source.S3.UsagePrefix), nil
	default:
		return nil, nil, fmt.Errorf("unsupported source kind %q", spec.Source.Kind)
	}
}

// newSink builds the configured sink.
func newSink(ctx context.Context, spec config.Pipeline) (sink.Sink, error) {
	switch spec.Sink.Kind {
	case "parquet":
		return parquet.NewWriter(
			spec.Sink.Parquet.Dir,
			spec.Sink.Parquet.Compression,
			spec.Sink.Parquet.Overwrite,
		), nil
	case "postgres":
		return postgres.NewRepository(ctx, postgres.Config{
			DSN:          spec.Sink.DB.DSN,
			Schema:       spec.Sink.DB.Schema,
			CreateTables: spec.Sink.DB.AutoCreateTables,
		})
	case "sqlite":
		return sqlite.NewRepository(ctx, sqlite.Config{
			DSN:          spec.Sink.DB.DSN,
			CreateTables: spec.Sink.DB.AutoCreateTables,
		})
	default:
		return nil, fmt.Errorf("unsupported sink kind %q", spec.Sink.Kind)
	}
}

// buildChain assembles the optional pre-build transform chain from config.
func buildChain(specs []config.Transform) (transformer.Chain, error) {
	var chain transformer.Chain
	for _, t := range specs {
		switch t.Kind {
		case "normalize":
			chain = append(chain, builtin.Normalize{})
		case "require":
			fields := t.Options.StringSlice("fields")
			if len(fields) == 0 {
				return nil, fmt.Errorf("require transform needs a non-empty fields option")
			}
			chain = append(chain, builtin.Require{Fields: fields})
		default:
			return nil, fmt.Errorf("unsupported transform kind %q", t.Kind)
		}
	}
	return chain, nil
}

// logParseSummary prints aggregated parse errors for one record set. Only the
// first N unique messages are shown.
func logParseSummary(set string, agg *errAgg) {
	if agg.count == 0 {
		return
	}
	log.Printf("%s parse errors: %d (showing first %d)", set, agg.count, len(agg.first))
	for i, s := range agg.first {
		log.Printf("  #%03d: %s", i+1, s)
	}
}

// getenvInt reads an integer env var, returning def when unset or malformed.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// pickInt prefers the config value when positive, else the fallback.
func pickInt(cfg, fallback int) int {
	if cfg > 0 {
		return cfg
	}
	return fallback
}

// errAgg aggregates errors
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}
