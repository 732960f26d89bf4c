// Package parquet implements the partitioned columnar file sink.
//
// Layout mirrors the usual lake convention: one directory per relation, one
// subdirectory level per partition column (hive-style key=value), one file
// per partition:
//
//	<dir>/songs/year=2001/artist_name=Some Artist/part-<uuid>.parquet
//	<dir>/time/year=2018/month=11/part-<uuid>.parquet
//
// Unpartitioned relations write a single part file directly under the
// relation directory.
//
// Atomicity: the relation is assembled in a hidden temp directory next to the
// target and renamed into place at the end, so a failed write leaves no
// partial relation behind. Overwrite policy is the caller's: with Overwrite
// unset an existing relation directory is an error.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/google/uuid"

	"starlake/internal/sink"
	"starlake/internal/star"
	"starlake/pkg/records"
)

// nullPartition names the directory for rows whose partition value is NULL.
const nullPartition = "__NULL__"

// Writer writes relations as partitioned parquet directories under Dir.
type Writer struct {
	Dir         string
	Compression string // "snappy" (default), "gzip", "none"
	Overwrite   bool
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir, compression string, overwrite bool) *Writer {
	return &Writer{Dir: dir, Compression: compression, Overwrite: overwrite}
}

// Close implements sink.Sink; the writer holds no persistent resources.
func (w *Writer) Close() error { return nil }

// Write persists one relation. Rows are grouped by the relation's partition
// columns, each partition becomes one parquet file, and the completed tree is
// renamed into place.
func (w *Writer) Write(ctx context.Context, rel star.Relation) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("parquet sink: mkdir %s: %w", w.Dir, err)
	}
	target := filepath.Join(w.Dir, rel.Name)
	if _, err := os.Stat(target); err == nil {
		if !w.Overwrite {
			return fmt.Errorf("parquet sink: %s already exists (set overwrite to replace)", target)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("parquet sink: stat %s: %w", target, err)
	}

	sd, err := schemaFor(rel)
	if err != nil {
		return err
	}
	codec, err := codecFor(w.Compression)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp(w.Dir, "."+rel.Name+"-tmp-")
	if err != nil {
		return fmt.Errorf("parquet sink: temp dir: %w", err)
	}
	defer os.RemoveAll(tmp) // no-op after successful rename

	for _, part := range partitionRows(rel) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := writePartFile(tmp, part.path, rel, sd, codec, part.rows); err != nil {
			return err
		}
	}

	if w.Overwrite {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("parquet sink: remove %s: %w", target, err)
		}
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("parquet sink: publish %s: %w", target, err)
	}
	return nil
}

// partition is one partition-directory worth of rows.
type partition struct {
	path string // relative dir, e.g. "year=2018/month=11" ("" when unpartitioned)
	rows []records.Record
}

// partitionRows groups the relation's rows by its partition column values.
// Output order is sorted by path so directory creation order is stable.
func partitionRows(rel star.Relation) []partition {
	if len(rel.PartitionBy) == 0 {
		return []partition{{rows: rel.Rows}}
	}

	partCols := make([]star.Column, 0, len(rel.PartitionBy))
	for _, name := range rel.PartitionBy {
		for _, c := range rel.Columns {
			if c.Name == name {
				partCols = append(partCols, c)
			}
		}
	}

	byPath := make(map[string][]records.Record)
	for _, rec := range rel.Rows {
		segs := make([]string, len(partCols))
		for i, c := range partCols {
			segs[i] = c.Name + "=" + partValue(sink.Value(rec, c))
		}
		p := filepath.Join(segs...)
		byPath[p] = append(byPath[p], rec)
	}

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]partition, len(paths))
	for i, p := range paths {
		out[i] = partition{path: p, rows: byPath[p]}
	}
	return out
}

// partValue renders a partition value as a path segment. Path separators are
// flattened; a NULL partition value gets its own directory rather than
// corrupting the layout.
func partValue(v any) string {
	if v == nil {
		return nullPartition
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		s = strconv.FormatInt(t.UnixMilli(), 10)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.ReplaceAll(s, string(os.PathSeparator), "_")
	if s == "" {
		return nullPartition
	}
	return s
}

// writePartFile writes one partition's rows as a single parquet file.
func writePartFile(
	root, rel string,
	relation star.Relation,
	sd *parquetschema.SchemaDefinition,
	codec parquet.CompressionCodec,
	rows []records.Record,
) error {
	dir := filepath.Join(root, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("parquet sink: mkdir %s: %w", dir, err)
	}
	name := filepath.Join(dir, "part-"+uuid.NewString()+".parquet")

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("parquet sink: create %s: %w", name, err)
	}

	pw := goparquet.NewFileWriter(f,
		goparquet.WithSchemaDefinition(sd),
		goparquet.WithCompressionCodec(codec),
	)

	for _, rec := range rows {
		if err := pw.AddData(encodeRow(rec, relation.Columns)); err != nil {
			f.Close()
			return fmt.Errorf("parquet sink: %s: add row: %w", relation.Name, err)
		}
	}

	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("parquet sink: %s: close writer: %w", relation.Name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("parquet sink: close %s: %w", name, err)
	}
	return nil
}

// encodeRow converts a record to the native value map the parquet writer
// expects: strings as []byte, timestamps as millisecond int64. NULLs are
// simply omitted from the map.
func encodeRow(rec records.Record, cols []star.Column) map[string]interface{} {
	row := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		v := sink.Value(rec, c)
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			row[c.Name] = []byte(t)
		case time.Time:
			row[c.Name] = t.UnixMilli()
		default:
			row[c.Name] = t
		}
	}
	return row
}

// schemaFor builds the parquet message schema for a relation.
func schemaFor(rel star.Relation) (*parquetschema.SchemaDefinition, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "message %s {\n", rel.Name)
	for _, c := range rel.Columns {
		// Everything is optional: nulls pass through from the source and the
		// fact relation's catalog references are nullable by design.
		switch c.Type {
		case star.TypeString:
			fmt.Fprintf(&b, "  optional binary %s (STRING);\n", c.Name)
		case star.TypeInt64:
			fmt.Fprintf(&b, "  optional int64 %s;\n", c.Name)
		case star.TypeFloat64:
			fmt.Fprintf(&b, "  optional double %s;\n", c.Name)
		case star.TypeTimestamp:
			fmt.Fprintf(&b, "  optional int64 %s (TIMESTAMP(MILLIS, true));\n", c.Name)
		default:
			return nil, fmt.Errorf("parquet sink: %s.%s: unknown column type %d", rel.Name, c.Name, c.Type)
		}
	}
	b.WriteString("}\n")

	sd, err := parquetschema.ParseSchemaDefinition(b.String())
	if err != nil {
		return nil, fmt.Errorf("parquet sink: schema for %s: %w", rel.Name, err)
	}
	return sd, nil
}

// codecFor maps the config compression name onto a parquet codec.
func codecFor(name string) (parquet.CompressionCodec, error) {
	switch name {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "none":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return parquet.CompressionCodec_UNCOMPRESSED, fmt.Errorf("parquet sink: unsupported compression %q", name)
	}
}
