package builtin

import "starlake/pkg/records"

// Rename maps field names onto new ones, e.g. artist_name → name once a
// record lives in a table whose identity already says "artist". Fields not in
// the mapping pass through unchanged. When an old name is absent the new name
// is simply not set.
type Rename struct {
	Mapping map[string]string // old name -> new name
}

// Apply returns new records with renamed keys; input records are not mutated.
func (rn Rename) Apply(in []records.Record) []records.Record {
	if len(rn.Mapping) == 0 {
		return in
	}
	out := make([]records.Record, len(in))
	for i, rec := range in {
		nr := make(records.Record, len(rec))
		for k, v := range rec {
			if nk, ok := rn.Mapping[k]; ok {
				nr[nk] = v
			} else {
				nr[k] = v
			}
		}
		out[i] = nr
	}
	return out
}
