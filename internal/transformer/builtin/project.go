// Package builtin contains the reusable transformers the relation builders
// compose. Each transformer is a small value type implementing
// transformer.Transformer; builders chain them rather than reimplementing
// projection/dedup logic per relation.
package builtin

import "starlake/pkg/records"

// Project reduces every record to the listed fields. Fields absent on a
// record stay absent (they surface as NULL downstream); nothing is invented.
//
// Project always allocates fresh records so the shared input slice stays
// untouched. Several builders consume the same immutable input set
// concurrently, so in-place mutation is off the table here.
type Project struct {
	Fields []string
}

// Apply returns new records containing only the projected fields.
func (p Project) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, rec := range in {
		nr := make(records.Record, len(p.Fields))
		for _, f := range p.Fields {
			if v, ok := rec[f]; ok {
				nr[f] = v
			}
		}
		out[i] = nr
	}
	return out
}
