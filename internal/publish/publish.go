// Package publish writes the current dataset into an external SQL database.
// Backends register themselves by kind from init() in their own packages;
// importing a backend package is what makes its kind available.
package publish

import (
	"context"
	"fmt"
	"sync"

	"datascope/internal/dataset"
)

// Config selects a registered backend and its destination.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
//   - Table is validated by Publish before any connection is opened.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Publisher is the backend-agnostic sink for a dataset.
//
// IMPORTANT: the interface is intentionally minimal. Each backend implements
// these semantics in its own idiomatic way (Postgres COPY, SQLite prepared
// inserts inside one transaction, etc).
type Publisher interface {
	// Close releases backend resources. Treat as "call once".
	Close()

	// EnsureTable creates the destination table if it does not exist,
	// mapping column kinds to backend-native SQL types.
	EnsureTable(ctx context.Context, table string, cols []ColumnSpec) error

	// InsertRows bulk-inserts the rows and reports how many were written.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// ColumnSpec carries what a backend needs to render one column of DDL.
type ColumnSpec struct {
	Name    string
	Kind    dataset.Kind
	Integer bool
}

type factory func(ctx context.Context, cfg Config) (Publisher, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. This is intentional to fail fast and
//     avoid ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("publish: Register called with empty kind")
	}
	if f == nil {
		panic("publish: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("publish: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Kinds returns the registered backend kinds, for error messages and help text.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}

// New constructs a Publisher using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("publish: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("publish: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Publish ensures the destination table exists and writes every row of the
// dataset into it.
//
// Edge cases:
//   - An empty table name is rejected before any connection is opened.
//   - Nulls are written as SQL NULL regardless of column kind.
func Publish(ctx context.Context, cfg Config, ds *dataset.Dataset) (int64, error) {
	if cfg.Table == "" {
		return 0, fmt.Errorf("publish: missing table name")
	}

	p, err := New(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	specs := Specs(ds)
	if err := p.EnsureTable(ctx, cfg.Table, specs); err != nil {
		return 0, fmt.Errorf("publish: ensure table %s: %w", cfg.Table, err)
	}

	cols := make([]string, len(specs))
	for i, s := range specs {
		cols[i] = s.Name
	}
	n, err := p.InsertRows(ctx, cfg.Table, cols, RowValues(ds))
	if err != nil {
		return n, fmt.Errorf("publish: insert into %s: %w", cfg.Table, err)
	}
	return n, nil
}

// Specs derives the column specs backends use to build DDL.
func Specs(ds *dataset.Dataset) []ColumnSpec {
	out := make([]ColumnSpec, ds.Cols())
	for i, c := range ds.Columns() {
		out[i] = ColumnSpec{Name: c.Name, Kind: c.Kind, Integer: c.Integer}
	}
	return out
}

// RowValues materializes the dataset as driver-ready rows. Null cells become
// nil so drivers emit SQL NULL.
func RowValues(ds *dataset.Dataset) [][]any {
	cols := ds.Columns()
	rows := make([][]any, ds.Rows())
	for i := range rows {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellAny(c, i)
		}
		rows[i] = row
	}
	return rows
}

func cellAny(c *dataset.Column, i int) any {
	if c.Null[i] {
		return nil
	}
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return int64(c.Floats[i])
		}
		return c.Floats[i]
	case dataset.KindDatetime:
		return c.Times[i]
	default:
		return c.Strings[i]
	}
}
