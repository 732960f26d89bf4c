package records

import (
	"encoding/json"
	"testing"
)

func TestString(t *testing.T) {
	t.Parallel()

	r := Record{
		"s":     "ARD7TVE1187B99BFB1",
		"empty": "",
		"nil":   nil,
		"num":   json.Number("26"),
		"i":     int64(8),
		"f":     200.5,
		"b":     true,
		"obj":   map[string]any{"x": 1},
	}

	cases := []struct {
		field  string
		want   string
		wantOK bool
	}{
		{"s", "ARD7TVE1187B99BFB1", true},
		{"empty", "", false},
		{"nil", "", false},
		{"missing", "", false},
		{"num", "26", true},
		{"i", "8", true},
		{"f", "200.5", true},
		{"b", "true", true},
		{"obj", "", false},
	}
	for _, c := range cases {
		got, ok := r.String(c.field)
		if got != c.want || ok != c.wantOK {
			t.Errorf("String(%q) = (%q, %v), want (%q, %v)", c.field, got, ok, c.want, c.wantOK)
		}
	}
}

func TestInt64(t *testing.T) {
	t.Parallel()

	r := Record{
		"num":      json.Number("1541106106796"),
		"sci":      json.Number("1.541106106796e12"),
		"intish":   42.0,
		"frac":     1.5,
		"str":      "26",
		"badstr":   "abc",
		"nilfield": nil,
	}

	cases := []struct {
		field  string
		want   int64
		wantOK bool
	}{
		{"num", 1541106106796, true},
		{"sci", 1541106106796, true},
		{"intish", 42, true},
		{"frac", 0, false},
		{"str", 26, true},
		{"badstr", 0, false},
		{"nilfield", 0, false},
		{"missing", 0, false},
	}
	for _, c := range cases {
		got, ok := r.Int64(c.field)
		if got != c.want || ok != c.wantOK {
			t.Errorf("Int64(%q) = (%d, %v), want (%d, %v)", c.field, got, ok, c.want, c.wantOK)
		}
	}
}

func TestFloat64(t *testing.T) {
	t.Parallel()

	r := Record{
		"num": json.Number("218.93179"),
		"f":   35.14968,
		"i":   int64(7),
		"str": "-90.2",
		"bad": "x",
	}

	cases := []struct {
		field  string
		want   float64
		wantOK bool
	}{
		{"num", 218.93179, true},
		{"f", 35.14968, true},
		{"i", 7, true},
		{"str", -90.2, true},
		{"bad", 0, false},
		{"missing", 0, false},
	}
	for _, c := range cases {
		got, ok := r.Float64(c.field)
		if got != c.want || ok != c.wantOK {
			t.Errorf("Float64(%q) = (%v, %v), want (%v, %v)", c.field, got, ok, c.want, c.wantOK)
		}
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	orig := Record{"a": "1", "b": int64(2)}
	cp := orig.Clone()
	cp["a"] = "mutated"
	cp["c"] = true

	if orig["a"] != "1" {
		t.Fatalf("clone mutation leaked into original: %#v", orig)
	}
	if _, ok := orig["c"]; ok {
		t.Fatalf("clone addition leaked into original: %#v", orig)
	}
}
