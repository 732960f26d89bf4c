package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"starlake/pkg/records"
)

// Normalize trims surrounding whitespace and applies Unicode NFC to every
// string value. It is an opt-in pre-build transform: free-text fields in the
// usage logs sometimes carry decomposed accents pasted from other systems,
// and NFC keeps byte-equal what is canonically equal.
//
// It is NOT part of the fixed builder chains. The songplay join is exact
// string equality over raw values; enabling Normalize changes which usage
// rows match the catalog, which is precisely why it is a configured choice
// rather than a default.
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			if s, ok := v.(string); ok {
				r[k] = norm.NFC.String(strings.TrimSpace(s))
			}
		}
	}
	return in
}
