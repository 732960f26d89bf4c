// Package sqlite implements a warehouse sink backed by SQLite through
// database/sql. SQLite has no bulk-load API like Postgres COPY, so each
// relation loads as a prepared INSERT repeated inside one transaction:
// optional CREATE TABLE, DELETE, then inserts, committed together.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"starlake/internal/sink"
	"starlake/internal/star"
)

// Config holds SQLite sink configuration.
type Config struct {
	DSN          string // file path or file: URL, passed to database/sql
	CreateTables bool   // issue CREATE TABLE IF NOT EXISTS before loading
}

// Repository is a SQLite-backed sink.Sink.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database and pings it with a short timeout so an
// invalid DSN fails fast.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// SQLite allows one writer at a time; the pipeline writes its relations
	// concurrently. A single pooled connection serializes the write
	// transactions, and the busy timeout covers any straggler lock.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

// Write replaces one relation's table contents in a single transaction.
func (r *Repository) Write(ctx context.Context, rel star.Relation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if r.cfg.CreateTables {
		if _, err := tx.ExecContext(ctx, createTableSQL(rel)); err != nil {
			return fmt.Errorf("sqlite: create %s: %w", rel.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quote(rel.Name)); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", rel.Name, err)
	}

	cols := rel.ColumnNames()
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quote(rel.Name),
		strings.Join(mapQuote(cols), ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range rel.Rows {
		row := sink.Row(rec, rel.Columns)
		for i, v := range row {
			// database/sql's sqlite driver has no native timestamp type;
			// store the epoch milliseconds the source carried.
			if t, ok := v.(time.Time); ok {
				row[i] = t.UnixMilli()
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("sqlite: insert into %s: %w", rel.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %s: %w", rel.Name, err)
	}
	return nil
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS from the relation's
// declared columns, mapped onto SQLite's storage classes.
func createTableSQL(rel star.Relation) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quote(rel.Name))
	b.WriteString(" (")
	for i, c := range rel.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(c.Name))
		b.WriteString(" ")
		b.WriteString(sqliteType(c.Type))
	}
	if len(rel.Key) > 0 {
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(mapQuote(rel.Key), ", "))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

func sqliteType(t star.ColType) string {
	switch t {
	case star.TypeInt64, star.TypeTimestamp:
		return "INTEGER"
	case star.TypeFloat64:
		return "REAL"
	default:
		return "TEXT"
	}
}

func quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func mapQuote(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return out
}
