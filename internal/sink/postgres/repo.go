// Package postgres implements a warehouse sink backed by Postgres using
// pgx v5. Each relation loads inside one transaction: optional CREATE TABLE,
// TRUNCATE, then a COPY of all rows, so a failed load leaves the previous
// contents in place.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"starlake/internal/sink"
	"starlake/internal/star"
)

// Config holds Postgres sink configuration.
type Config struct {
	DSN          string // connection string for pgxpool
	Schema       string // optional schema prefix, e.g. "public"
	CreateTables bool   // issue CREATE TABLE IF NOT EXISTS before loading
}

// Repository is a Postgres-backed sink.Sink.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository connects a pool and returns the repository. Close releases it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Write loads one relation. The table is replaced wholesale: truncated and
// re-filled inside a single transaction.
func (r *Repository) Write(ctx context.Context, rel star.Relation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres sink: begin: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if r.cfg.CreateTables {
		if _, err := tx.Exec(ctx, createTableSQL(r.cfg.Schema, rel)); err != nil {
			return fmt.Errorf("postgres sink: create %s: %w", rel.Name, err)
		}
	}

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+r.fqn(rel.Name)); err != nil {
		return fmt.Errorf("postgres sink: truncate %s: %w", rel.Name, err)
	}

	cols := rel.ColumnNames()
	rows := make([][]any, len(rel.Rows))
	for i, rec := range rel.Rows {
		rows[i] = sink.Row(rec, rel.Columns)
	}

	n, err := tx.CopyFrom(ctx, r.identifier(rel.Name), cols, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return fmt.Errorf("postgres sink: copy %s: %s (%s)", rel.Name, pgErr.Detail, pgErr.SQLState())
		}
		return fmt.Errorf("postgres sink: copy %s: %w", rel.Name, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("postgres sink: copy %s: %d of %d rows", rel.Name, n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres sink: commit %s: %w", rel.Name, err)
	}
	return nil
}

// identifier returns the optionally schema-qualified pgx identifier.
func (r *Repository) identifier(table string) pgx.Identifier {
	if r.cfg.Schema != "" {
		return pgx.Identifier{r.cfg.Schema, table}
	}
	return pgx.Identifier{table}
}

// fqn quotes the optionally schema-qualified table name for raw SQL.
func (r *Repository) fqn(table string) string {
	if r.cfg.Schema != "" {
		return pgIdent(r.cfg.Schema) + "." + pgIdent(table)
	}
	return pgIdent(table)
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS from the relation's
// declared columns. The relation key becomes the primary key when present;
// the fact relation has no key and gets none.
func createTableSQL(schema string, rel star.Relation) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	if schema != "" {
		b.WriteString(pgIdent(schema))
		b.WriteString(".")
	}
	b.WriteString(pgIdent(rel.Name))
	b.WriteString(" (")
	for i, c := range rel.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(pgType(c.Type))
	}
	if len(rel.Key) > 0 {
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(mapIdent(rel.Key), ", "))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

func pgType(t star.ColType) string {
	switch t {
	case star.TypeInt64:
		return "BIGINT"
	case star.TypeFloat64:
		return "DOUBLE PRECISION"
	case star.TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// pgIdent safely quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
