// Package star derives the five output relations of the playback star schema
// from the two raw record families:
//
//	catalog records (song metadata)  → songs, artists
//	usage records   (event log)      → users, time, songplays
//
// Every builder is a pure batch transformation: slice of records in, Relation
// out, no shared mutable state. The builders never touch configuration,
// credentials, or sinks; the caller materializes inputs once and may run all
// five builders concurrently over them.
package star

import "starlake/pkg/records"

// ColType enumerates the logical column types a sink has to encode.
type ColType uint8

const (
	TypeString ColType = iota
	TypeInt64
	TypeFloat64
	TypeTimestamp // millisecond-precision instant, UTC
)

// Column is one named, typed output column.
type Column struct {
	Name string
	Type ColType
}

// Relation is a fully materialized output table plus the metadata a sink
// needs to persist it: ordered columns, partition columns, and the logical
// uniqueness key (informational for sinks; uniqueness is established by the
// builders themselves).
type Relation struct {
	Name        string
	Columns     []Column
	PartitionBy []string
	Key         []string
	Rows        []records.Record
}

// ColumnNames returns the ordered column names.
func (r Relation) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Field names shared by the builders. Usage records are assumed to be in
// canonical snake_case form (see RenameUsage).
const (
	FieldSongID     = "song_id"
	FieldArtistID   = "artist_id"
	FieldUserID     = "user_id"
	FieldTS         = "ts"
	FieldPage       = "page"
	FieldStartTime  = "start_time"
	FieldSongplayID = "songplay_id"

	// PageNextSong marks an actual playback event; only these feed the time
	// and songplay relations.
	PageNextSong = "NextSong"
)
