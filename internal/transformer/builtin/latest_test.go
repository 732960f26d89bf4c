package builtin

import (
	"encoding/json"
	"testing"

	"starlake/pkg/records"
)

func TestLatestWinsMaxOrder(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("user_id", "26", "level", "free", "ts", json.Number("1000")),
		mk("user_id", "26", "level", "paid", "ts", json.Number("2000")),
		mk("user_id", "26", "level", "free", "ts", json.Number("1500")),
		mk("user_id", "9", "level", "free", "ts", json.Number("50")),
	}
	got := LatestWins{Key: "user_id", OrderBy: "ts"}.Apply(in)

	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %#v", len(got), got)
	}
	if got[0]["level"] != "paid" {
		t.Fatalf("user 26 winner = %#v, want the ts=2000 record", got[0])
	}
	if got[1]["user_id"] != "9" {
		t.Fatalf("unexpected second winner: %#v", got[1])
	}
}

func TestLatestWinsTieBreaksLater(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("user_id", "1", "level", "earlier", "ts", int64(100)),
		mk("user_id", "1", "level", "later", "ts", int64(100)),
	}
	got := LatestWins{Key: "user_id", OrderBy: "ts"}.Apply(in)

	if len(got) != 1 || got[0]["level"] != "later" {
		t.Fatalf("tie should break toward the later record, got %#v", got)
	}
}

func TestLatestWinsDropsUnusable(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		mk("user_id", nil, "ts", int64(1)),
		mk("user_id", "1"),
		mk("user_id", "1", "ts", "not-a-number"),
		mk("user_id", "2", "ts", int64(5)),
	}
	got := LatestWins{Key: "user_id", OrderBy: "ts"}.Apply(in)

	if len(got) != 1 || got[0]["user_id"] != "2" {
		t.Fatalf("records without key or order must drop, got %#v", got)
	}
}
