package builtin

import "starlake/pkg/records"

// Filter keeps only records whose field equals the given string. This is the
// page == "NextSong" gate: only playback events feed the time and fact
// relations. Comparison is exact; records missing the field are dropped.
type Filter struct {
	Field  string
	Equals string
}

// Apply returns the records matching the predicate in a fresh slice. Several
// builders filter the same input concurrently, so the input's backing array
// must not be reused.
func (f Filter) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		if s, ok := rec.String(f.Field); ok && s == f.Equals {
			out = append(out, rec)
		}
	}
	return out
}
