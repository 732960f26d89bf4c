package parquet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"starlake/internal/star"
	"starlake/pkg/records"
)

func testRelation() star.Relation {
	return star.Relation{
		Name: "time",
		Columns: []star.Column{
			{Name: "start_time", Type: star.TypeTimestamp},
			{Name: "year", Type: star.TypeInt64},
			{Name: "month", Type: star.TypeInt64},
		},
		PartitionBy: []string{"year", "month"},
		Rows: []records.Record{
			{"start_time": time.Date(2018, 11, 15, 0, 0, 0, 0, time.UTC), "year": int64(2018), "month": int64(11)},
			{"start_time": time.Date(2018, 11, 16, 0, 0, 0, 0, time.UTC), "year": int64(2018), "month": int64(11)},
			{"start_time": time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC), "year": int64(2019), "month": int64(1)},
		},
	}
}

func TestWritePartitionedLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir, "snappy", false)

	if err := w.Write(context.Background(), testRelation()); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, part := range []string{"year=2018/month=11", "year=2019/month=1"} {
		files, err := filepath.Glob(filepath.Join(dir, "time", part, "part-*.parquet"))
		if err != nil || len(files) != 1 {
			t.Fatalf("partition %s: files=%v err=%v, want exactly one part file", part, files, err)
		}
	}

	// No leftover temp directory after publish.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".time-tmp-") {
			t.Fatalf("temp dir left behind: %s", e.Name())
		}
	}
}

func TestWriteRefusesExistingTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir, "", false)
	rel := testRelation()

	if err := w.Write(context.Background(), rel); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := w.Write(context.Background(), rel); err == nil {
		t.Fatal("second write should fail without overwrite")
	}

	w.Overwrite = true
	if err := w.Write(context.Background(), rel); err != nil {
		t.Fatalf("overwrite write: %v", err)
	}
}

func TestPartValueNull(t *testing.T) {
	t.Parallel()

	if got := partValue(nil); got != nullPartition {
		t.Fatalf("partValue(nil) = %q", got)
	}
	if got := partValue(""); got != nullPartition {
		t.Fatalf("partValue(empty) = %q", got)
	}
	if got := partValue("a/b"); strings.Contains(got, "/") {
		t.Fatalf("partValue must flatten separators, got %q", got)
	}
	if got := partValue(int64(2018)); got != "2018" {
		t.Fatalf("partValue(2018) = %q", got)
	}
}

func TestNullPartitionValueGetsOwnDirectory(t *testing.T) {
	t.Parallel()

	rel := star.Relation{
		Name: "songs",
		Columns: []star.Column{
			{Name: "song_id", Type: star.TypeString},
			{Name: "year", Type: star.TypeInt64},
			{Name: "artist_name", Type: star.TypeString},
		},
		PartitionBy: []string{"year", "artist_name"},
		Rows: []records.Record{
			{"song_id": "S1", "year": int64(2001), "artist_name": "Elena"},
			{"song_id": "S2"}, // both partition values null
		},
	}

	dir := t.TempDir()
	if err := NewWriter(dir, "none", false).Write(context.Background(), rel); err != nil {
		t.Fatalf("write: %v", err)
	}

	nullDir := filepath.Join(dir, "songs", "year="+nullPartition, "artist_name="+nullPartition)
	files, err := filepath.Glob(filepath.Join(nullDir, "part-*.parquet"))
	if err != nil || len(files) != 1 {
		t.Fatalf("null partition: files=%v err=%v", files, err)
	}
}

func TestSchemaForRejectsUnknownType(t *testing.T) {
	t.Parallel()

	rel := star.Relation{
		Name:    "bad",
		Columns: []star.Column{{Name: "x", Type: star.ColType(99)}},
	}
	if _, err := schemaFor(rel); err == nil {
		t.Fatal("want error for unknown column type")
	}
}

func TestCodecFor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "snappy", "gzip", "none"} {
		if _, err := codecFor(name); err != nil {
			t.Errorf("codecFor(%q): %v", name, err)
		}
	}
	if _, err := codecFor("zstd"); err == nil {
		t.Error("codecFor(zstd) should fail")
	}
}
