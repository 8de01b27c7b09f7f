package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"datascope/internal/dataset"
	"datascope/internal/publish"
)

// Repo implements publish.Publisher for Microsoft SQL Server.
//
// Inserts are batched into multi-row VALUES statements. SQL Server caps a
// statement at 2100 parameters, so batches are sized to stay under that.
type Repo struct {
	db *sql.DB
}

const maxParams = 2000

func init() {
	publish.Register("mssql", New)
}

func New(ctx context.Context, cfg publish.Config) (publish.Publisher, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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

// EnsureTable creates the destination table if absent. SQL Server has no
// CREATE TABLE IF NOT EXISTS, so existence is checked through sys.tables.
func (r *Repo) EnsureTable(ctx context.Context, table string, cols []publish.ColumnSpec) error {
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %s: no columns", table)
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s %s", msIdent(c.Name), msType(c))
	}
	ddl := fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM sys.tables WHERE name = N'%s') CREATE TABLE %s (%s);",
		strings.ReplaceAll(table, "'", "''"),
		msIdent(table),
		strings.Join(parts, ", "),
	)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	perBatch := maxParams / len(columns)
	if perBatch < 1 {
		perBatch = 1
	}

	var total int64
	for start := 0; start < len(rows); start += perBatch {
		end := start + perBatch
		if end > len(rows) {
			end = len(rows)
		}
		n, err := r.insertBatch(ctx, table, columns, rows[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Repo) insertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(msIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func msType(c publish.ColumnSpec) string {
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return "BIGINT"
		}
		return "FLOAT"
	case dataset.KindDatetime:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func msIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
