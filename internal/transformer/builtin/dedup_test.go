package builtin

import (
	"reflect"
	"testing"

	"starlake/pkg/records"
)

func mk(kv ...any) records.Record {
	r := records.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1]
	}
	return r
}

func TestDeDupKeepFirst(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("song_id", "S1", "title", "first"),
		mk("song_id", "S2", "title", "other"),
		mk("song_id", "S1", "title", "duplicate"),
	}
	got := DeDup{Keys: []string{"song_id"}}.Apply(in)

	want := []records.Record{
		mk("song_id", "S1", "title", "first"),
		mk("song_id", "S2", "title", "other"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-first = %#v, want %#v", got, want)
	}
}

func TestDeDupKeepLast(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("id", "A", "v", 1),
		mk("id", "A", "v", 2),
		mk("id", "B", "v", 3),
	}
	got := DeDup{Keys: []string{"id"}, Policy: "keep-last"}.Apply(in)

	want := []records.Record{
		mk("id", "A", "v", 2),
		mk("id", "B", "v", 3),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-last = %#v, want %#v", got, want)
	}
}

func TestDeDupDropsNullKeys(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("id", "A"),
		mk("id", nil),
		mk("other", "x"),
	}
	got := DeDup{Keys: []string{"id"}}.Apply(in)

	if len(got) != 1 {
		t.Fatalf("got %d records, want 1: %#v", len(got), got)
	}
	if got[0]["id"] != "A" {
		t.Fatalf("wrong survivor: %#v", got[0])
	}
}

func TestDeDupCompositeKey(t *testing.T) {
	t.Parallel()

	// The separator keeps ("ab","c") and ("a","bc") distinct.
	in := []records.Record{
		mk("a", "ab", "b", "c"),
		mk("a", "a", "b", "bc"),
	}
	got := DeDup{Keys: []string{"a", "b"}}.Apply(in)
	if len(got) != 2 {
		t.Fatalf("composite key collapsed distinct records: %#v", got)
	}
}

func TestDeDupNoKeysPassThrough(t *testing.T) {
	t.Parallel()

	in := []records.Record{mk("x", 1), mk("x", 1)}
	got := DeDup{}.Apply(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("no-key dedup should pass through, got %#v", got)
	}
}
