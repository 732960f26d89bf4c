// DeDup is the policy-driven de-duplication transformer for the pipeline. It
// collapses duplicate records by a configured key and chooses a winner
// according to a configurable policy:
//
//   - "keep-first" : keep the earliest occurrence in the enumeration order
//     (default; the dimension builders rely on this, combined with the stable
//     source listing order, for deterministic duplicate resolution)
//   - "keep-last"  : keep the latest occurrence
//
// Records with a missing or nil key field are dropped entirely: a null key
// cannot identify a dimension row, and a synthesized "unknown" row would
// fabricate an entity that never existed in the source.
//
// Keys: a record's key is constructed from the concatenation of configured
// fields as strings, separated by an unlikely byte. For stable semantics run
// DeDup after any renaming so key field names are final.
package builtin

import (
	"fmt"
	"sort"
	"strings"

	"starlake/pkg/records"
)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	// Keys are the field names that form the business key, e.g. ["song_id"].
	Keys []string

	// Policy selects the winner among duplicates: "keep-first" (default) or
	// "keep-last".
	Policy string
}

// Apply executes the de-duplication and returns a new slice containing only
// the winning records for each key, in ascending order of the winner's
// original position.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		rec   records.Record
		index int // original position in input (0-based)
	}

	winners := make(map[string]slot, len(in))

	keyOf := func(r records.Record) (string, bool) {
		var b strings.Builder
		for _, k := range d.Keys {
			v, ok := r[k]
			if !ok || v == nil {
				// Null key: record leaves the relation (see package comment).
				return "", false
			}
			if b.Len() > 0 {
				b.WriteByte('\x1f') // unlikely separator
			}
			switch t := v.(type) {
			case string:
				b.WriteString(t)
			default:
				// Use fmt to stabilize across value types.
				b.WriteString(fmt.Sprint(t))
			}
		}
		return b.String(), true
	}

	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		switch policy {
		case "keep-last":
			winners[key] = slot{rec: r, index: i}
		default: // "keep-first"
			if _, exists := winners[key]; !exists {
				winners[key] = slot{rec: r, index: i}
			}
		}
	}

	// Emit winners in stable index order.
	indexes := make([]int, 0, len(winners))
	posByIndex := make(map[int]records.Record, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		posByIndex[s.index] = s.rec
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(winners))
	for _, idx := range indexes {
		out = append(out, posByIndex[idx])
	}
	return out
}
