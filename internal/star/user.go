package star

import (
	"starlake/internal/transformer"
	"starlake/internal/transformer/builtin"
	"starlake/pkg/records"
)

// RenameUsage converts the raw usage-log field names (camelCase, as the
// application emits them) to the canonical snake_case names every builder
// expects. Run it once right after extraction; it is idempotent for records
// already in canonical form.
func RenameUsage(usage []records.Record) []records.Record {
	return builtin.Rename{Mapping: map[string]string{
		"firstName": "first_name",
		"lastName":  "last_name",
		"sessionId": "session_id",
		"userAgent": "user_agent",
		"userId":    "user_id",
	}}.Apply(usage)
}

// Users derives the user dimension from usage records. Unlike songs/artists,
// duplicates are not interchangeable: level and profile fields change over
// time, so per user_id the record with the maximum ts wins and ts itself is
// then dropped from the row.
//
// All pages count, not just NextSong: a user's newest state is authoritative
// regardless of what they were doing when it was recorded.
func Users(usage []records.Record) Relation {
	rows := transformer.Chain{
		builtin.Project{Fields: []string{
			"user_id", "first_name", "last_name", "gender", "level", "ts",
		}},
		builtin.LatestWins{Key: FieldUserID, OrderBy: FieldTS},
		builtin.Project{Fields: []string{
			"user_id", "first_name", "last_name", "gender", "level",
		}},
	}.Apply(usage)

	return Relation{
		Name: "users",
		Columns: []Column{
			{Name: "user_id", Type: TypeString},
			{Name: "first_name", Type: TypeString},
			{Name: "last_name", Type: TypeString},
			{Name: "gender", Type: TypeString},
			{Name: "level", Type: TypeString},
		},
		Key:  []string{FieldUserID},
		Rows: rows,
	}
}
