package star

import (
	"starlake/internal/transformer"
	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

// Artists derives the artist dimension from raw catalog records. The
// artist_* prefix is dropped on the way in: the table's identity already
// encodes "artist", so the disambiguation the catalog needed is noise here.
// One row per distinct non-null artist_id, keep-first among duplicates.
func Artists(catalog []records.Record) Relation {
	rows := transformer.Chain{
		builtin.Project{Fields: []string{
			"artist_id", "artist_name", "artist_location", "artist_latitude", "artist_longitude",
		}},
		builtin.Rename{Mapping: map[string]string{
			"artist_name":      "name",
			"artist_location":  "location",
			"artist_latitude":  "latitude",
			"artist_longitude": "longitude",
		}},
		builtin.DeDup{Keys: []string{FieldArtistID}, Policy: "keep-first"},
	}.Apply(catalog)

	return Relation{
		Name: "artists",
		Columns: []Column{
			{Name: "artist_id", Type: TypeString},
			{Name: "name", Type: TypeString},
			{Name: "location", Type: TypeString},
			{Name: "latitude", Type: TypeFloat64},
			{Name: "longitude", Type: TypeFloat64},
		},
		Key:  []string{FieldArtistID},
		Rows: rows,
	}
}
