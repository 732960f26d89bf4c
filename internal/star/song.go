package star

import (
	"starlake/internal/transformer"
	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

// Songs derives the song dimension from raw catalog records: one row per
// distinct non-null song_id, fields taken verbatim from the first record
// carrying that id in enumeration order. Conflicting duplicates are not
// merged; source data is assumed consistent across duplicates.
func Songs(catalog []records.Record) Relation {
	rows := transformer.Chain{
		builtin.Project{Fields: []string{
			"song_id", "title", "artist_id", "year", "duration", "artist_name",
		}},
		builtin.DeDup{Keys: []string{FieldSongID}, Policy: "keep-first"},
	}.Apply(catalog)

	return Relation{
		Name: "songs",
		Columns: []Column{
			{Name: "song_id", Type: TypeString},
			{Name: "title", Type: TypeString},
			{Name: "artist_id", Type: TypeString},
			{Name: "year", Type: TypeInt64},
			{Name: "duration", Type: TypeFloat64},
			{Name: "artist_name", Type: TypeString},
		},
		PartitionBy: []string{"year", "artist_name"},
		Key:         []string{FieldSongID},
		Rows:        rows,
	}
}
