// Package transformer defines the batch transformation contract the relation
// builders compose.
package transformer

import "starlake/pkg/records"

// Transformer transforms a batch of records into another batch. An
// implementation may drop, rewrite, or reorder records; whether it mutates
// its input in place is documented per implementation.
type Transformer interface {
	Apply(in []records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

// Apply runs the chain over the input batch.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
