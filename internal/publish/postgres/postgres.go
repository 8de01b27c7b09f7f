package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"datascope/internal/dataset"
	"datascope/internal/publish"
)

// Repo implements publish.Publisher for Postgres. Bulk loading goes through
// the COPY protocol, which is the fastest path pgx offers.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	publish.Register("postgres", New)
}

func New(ctx context.Context, cfg publish.Config) (publish.Publisher, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureTable creates the destination table when it does not exist. The DDL
// is idempotent so repeated publishes of the same dataset are safe.
func (r *Repo) EnsureTable(ctx context.Context, table string, cols []publish.ColumnSpec) error {
	sql, err := buildCreateSQL(table, cols)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// buildCreateSQL is pure so DDL rendering is unit-testable without a database.
func buildCreateSQL(table string, cols []publish.ColumnSpec) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("table name is empty")
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s: no columns", table)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgIdent(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(pgType(c))
	}
	b.WriteString(");")
	return b.String(), nil
}

func pgType(c publish.ColumnSpec) string {
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return "BIGINT"
		}
		return "DOUBLE PRECISION"
	case dataset.KindDatetime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
