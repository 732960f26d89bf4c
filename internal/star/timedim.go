package star

import (
	"time"

	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

// TimeParts is the calendar decomposition of one playback instant.
type TimeParts struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int // ISO week of year
	Month     int
	Year      int
	Weekday   int // 1=Sunday .. 7=Saturday
}

// Decompose interprets an origin-epoch millisecond timestamp as a UTC instant
// and extracts its calendar fields. The full millisecond precision is kept on
// StartTime; the calendar fields come from the containing day.
//
// The year field is a true calendar year. An earlier cut of this pipeline
// derived it with the hour extractor, yielding 0-23; outputs deliberately
// diverge from that in the year column of the time and songplay relations.
func Decompose(tsMillis int64) TimeParts {
	t := time.UnixMilli(tsMillis).UTC()
	_, week := t.ISOWeek()
	return TimeParts{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   int(t.Weekday()) + 1,
	}
}

// Times derives the time dimension from usage records: one row per distinct
// playback instant among page == "NextSong" events. Records without a usable
// ts are dropped; two events sharing a ts collapse to a single row no matter
// how their other fields differ.
func Times(usage []records.Record) Relation {
	plays := builtin.Filter{Field: FieldPage, Equals: PageNextSong}.Apply(usage)

	rows := make([]records.Record, 0, len(plays))
	for _, rec := range plays {
		ts, ok := rec.Int64(FieldTS)
		if !ok {
			continue
		}
		p := Decompose(ts)
		rows = append(rows, records.Record{
			"start_time": p.StartTime,
			"hour":       int64(p.Hour),
			"day":        int64(p.Day),
			"week":       int64(p.Week),
			"month":      int64(p.Month),
			"year":       int64(p.Year),
			"weekday":    int64(p.Weekday),
		})
	}
	rows = builtin.DeDup{Keys: []string{FieldStartTime}, Policy: "keep-first"}.Apply(rows)

	return Relation{
		Name: "time",
		Columns: []Column{
			{Name: "start_time", Type: TypeTimestamp},
			{Name: "hour", Type: TypeInt64},
			{Name: "day", Type: TypeInt64},
			{Name: "week", Type: TypeInt64},
			{Name: "month", Type: TypeInt64},
			{Name: "year", Type: TypeInt64},
			{Name: "weekday", Type: TypeInt64},
		},
		PartitionBy: []string{"year", "month"},
		Key:         []string{FieldStartTime},
		Rows:        rows,
	}
}
