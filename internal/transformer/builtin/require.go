package builtin

import "starlake/pkg/records"

// Require drops records missing any of the listed fields. It is the
// configurable pre-build gate for callers that would rather lose an
// incomplete record up front than carry its NULLs through every relation;
// the builders' own null-key handling (see DeDup, LatestWins) still applies
// to whatever passes.
//
// A field counts as missing when it is absent, nil, or the empty string.
// Values that are present but malformed (a non-numeric ts, say) pass; typed
// interpretation is the accessors' job, not this gate's.
type Require struct {
	Fields []string
}

// Apply returns only the records carrying every required field. It runs in
// the sequential pre-build chain and filters by reslicing its input, so the
// caller must not reuse the input slice afterwards.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		keep := true
		for _, f := range r.Fields {
			v, ok := rec[f]
			if !ok || v == nil || v == "" {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}
