package star

import (
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

// JoinStats summarizes how the usage/catalog join went. The numbers feed
// metrics and the end-of-run summary; they do not affect output.
type JoinStats struct {
	Plays     int // usage records that qualified (NextSong with usable ts)
	DroppedTS int // qualifying page events without a usable ts
	Matched   int // fact rows carrying a resolved song_id/artist_id
	Unmatched int // fact rows with null song_id/artist_id
}

// catalogKey hashes the exact (title, artist_name) pair. The hash only
// narrows candidates; matches are confirmed by string equality, so a
// collision can never produce a wrong join, only a wasted comparison.
func catalogKey(title, artist string) uint64 {
	b := make([]byte, 0, len(title)+len(artist)+1)
	b = append(b, title...)
	b = append(b, '\x1f')
	b = append(b, artist...)
	return xxh3.Hash(b)
}

type catalogEntry struct {
	title    string
	artist   string
	songID   any
	artistID any
}

// Songplays derives the fact relation. Each page == "NextSong" usage record
// is left-outer joined against the RAW catalog stream (not the deduplicated
// songs/artists dimensions) on usage.song == catalog.title AND usage.artist
// == catalog.artist_name, exact string equality only.
//
// Join semantics, both deliberate:
//   - zero catalog matches still emit exactly one row, song_id/artist_id null;
//   - multiple matches fan out to one row per match. Downstream consumers
//     count one fact row per (usage event × catalog match).
//
// The catalog's own year column plays no part here; it is renamed away
// (album_year) before projection so the usage-side derived year cannot be
// shadowed. year/month on the fact row come from the playback instant.
//
// songplay_id is a random UUID: unique, unordered, not stable across runs.
func Songplays(usage, catalog []records.Record) (Relation, JoinStats) {
	var stats JoinStats

	// Index the raw catalog by (title, artist_name). Records missing either
	// field can never satisfy the equality predicate and are not indexed.
	index := make(map[uint64][]catalogEntry, len(catalog))
	shadowed := builtin.Rename{Mapping: map[string]string{"year": "album_year"}}.Apply(catalog)
	for _, rec := range shadowed {
		title, ok := rec.String("title")
		if !ok {
			continue
		}
		artist, ok := rec.String("artist_name")
		if !ok {
			continue
		}
		h := catalogKey(title, artist)
		index[h] = append(index[h], catalogEntry{
			title:    title,
			artist:   artist,
			songID:   rec[FieldSongID],
			artistID: rec[FieldArtistID],
		})
	}

	plays := builtin.Filter{Field: FieldPage, Equals: PageNextSong}.Apply(usage)

	rows := make([]records.Record, 0, len(plays))
	for _, rec := range plays {
		ts, ok := rec.Int64(FieldTS)
		if !ok {
			stats.DroppedTS++
			continue
		}
		stats.Plays++
		p := Decompose(ts)

		base := records.Record{
			"start_time": p.StartTime,
			"user_id":    rec["user_id"],
			"level":      rec["level"],
			"session_id": rec["session_id"],
			"location":   rec["location"],
			"user_agent": rec["user_agent"],
			"year":       int64(p.Year),
			"month":      int64(p.Month),
		}

		matches := probe(index, rec)
		if len(matches) == 0 {
			row := base.Clone()
			row[FieldSongplayID] = uuid.NewString()
			row[FieldSongID] = nil
			row[FieldArtistID] = nil
			rows = append(rows, row)
			stats.Unmatched++
			continue
		}
		for _, m := range matches {
			row := base.Clone()
			row[FieldSongplayID] = uuid.NewString()
			row[FieldSongID] = m.songID
			row[FieldArtistID] = m.artistID
			rows = append(rows, row)
			stats.Matched++
		}
	}

	rel := Relation{
		Name: "songplays",
		Columns: []Column{
			{Name: "songplay_id", Type: TypeString},
			{Name: "start_time", Type: TypeTimestamp},
			{Name: "user_id", Type: TypeString},
			{Name: "level", Type: TypeString},
			{Name: "song_id", Type: TypeString},
			{Name: "artist_id", Type: TypeString},
			{Name: "session_id", Type: TypeInt64},
			{Name: "location", Type: TypeString},
			{Name: "user_agent", Type: TypeString},
			{Name: "year", Type: TypeInt64},
			{Name: "month", Type: TypeInt64},
		},
		PartitionBy: []string{"year", "month"},
		Rows:        rows,
	}
	return rel, stats
}

// probe returns the catalog entries exactly matching the usage record's song
// title and artist name. A usage record missing either free-text field has no
// equality to test and matches nothing.
func probe(index map[uint64][]catalogEntry, rec records.Record) []catalogEntry {
	song, ok := rec.String("song")
	if !ok {
		return nil
	}
	artist, ok := rec.String("artist")
	if !ok {
		return nil
	}
	var out []catalogEntry
	for _, e := range index[catalogKey(song, artist)] {
		if e.title == song && e.artist == artist {
			out = append(out, e)
		}
	}
	return out
}
