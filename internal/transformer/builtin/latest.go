package builtin

import (
	"sort"

	"starlake/pkg/records"
)

// LatestWins groups records by Key and keeps, per group, the record with the
// maximum numeric OrderBy value. This is the "a user's most recent log entry
// is authoritative" reduction: profile fields and subscription level drift
// over time, and the newest observation wins.
//
// Ties on OrderBy break toward the later record in enumeration order;
// millisecond timestamps make real ties rare for a single entity.
//
// Records missing Key are dropped (same null-key policy as DeDup). Records
// missing OrderBy, or whose OrderBy is not numeric, are dropped too: without
// a timestamp there is no notion of "latest" to compare against.
type LatestWins struct {
	Key     string // grouping field, e.g. "user_id"
	OrderBy string // numeric recency field, e.g. "ts"
}

// Apply returns one record per key, in ascending order of the winner's
// original position. The OrderBy field is retained; callers project it away
// when the output table should not carry it.
func (l LatestWins) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || l.Key == "" || l.OrderBy == "" {
		return in
	}

	type slot struct {
		rec   records.Record
		index int
		order int64
	}

	winners := make(map[string]slot, len(in))

	for i, r := range in {
		key, ok := r.String(l.Key)
		if !ok {
			continue
		}
		ord, ok := r.Int64(l.OrderBy)
		if !ok {
			continue
		}
		prev, exists := winners[key]
		if !exists || ord > prev.order || (ord == prev.order && i > prev.index) {
			winners[key] = slot{rec: r, index: i, order: ord}
		}
	}

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
