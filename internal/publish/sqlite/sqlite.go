package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"datascope/internal/dataset"
	"datascope/internal/publish"
)

// Repo implements publish.Publisher for SQLite.
//
// SQLite has no native timestamp type; modernc.org/sqlite stores whatever
// affinity the value suggests. Timestamps are written as RFC3339Nano strings
// for reliable round-trip behavior and easy debugging.
type Repo struct {
	db *sql.DB
}

func init() {
	publish.Register("sqlite", New)
}

func New(ctx context.Context, cfg publish.Config) (publish.Publisher, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) EnsureTable(ctx context.Context, table string, cols []publish.ColumnSpec) error {
	ddl, err := buildCreateSQL(table, cols)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertRows uses a single prepared statement inside one transaction. That is
// the idiomatic fast path for SQLite; multi-row VALUES lists buy nothing here.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES (")
	b.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
	b.WriteString(")")

	stmt, err := tx.PrepareContext(ctx, b.String())
	if err != nil {
		return 0, fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer stmt.Close()

	var total int64
	for _, row := range rows {
		args := make([]any, len(row))
		for i, v := range row {
			if t, ok := v.(time.Time); ok {
				args[i] = t.UTC().Format(time.RFC3339Nano)
			} else {
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return total, fmt.Errorf("insert into %s: %w", table, err)
		}
		total++
	}

	if err := tx.Commit(); err != nil {
		return total, err
	}
	return total, nil
}

func buildCreateSQL(table string, cols []publish.ColumnSpec) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("table name is empty")
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s: no columns", table)
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s %s", sqlIdent(c.Name), sqliteType(c))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);",
		sqlIdent(table), strings.Join(parts, ", ")), nil
}

func sqliteType(c publish.ColumnSpec) string {
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return "INTEGER"
		}
		return "REAL"
	default:
		// datetime columns land here too: stored as RFC3339Nano TEXT.
		return "TEXT"
	}
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
