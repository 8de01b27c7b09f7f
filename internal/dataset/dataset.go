// Package dataset implements the in-memory table that a session operates on.
//
// The dataset package is responsible for:
//   - Holding the currently loaded table as typed columns
//   - Enforcing tabular invariants (unique column names, equal lengths)
//   - Providing the mutation surface used by feature-engineering transforms
//     (add, drop, replace column)
//
// Design constraints:
//   - A Dataset belongs to exactly one session and is mutated in place;
//     callers must not share one Dataset across sessions.
//   - Per-column summaries are derived on demand by internal/describe and
//     never cached here.
package dataset

import (
	"fmt"
	"time"
)

// Kind is the semantic type of a column.
type Kind int

const (
	// KindNumeric holds float64 values. Integer-looking input is still
	// stored as float64; Column.Integer records the distinction for
	// export/DDL purposes.
	KindNumeric Kind = iota
	// KindCategorical holds a bounded set of string labels (including
	// booleans, which are folded to "true"/"false").
	KindCategorical
	// KindDatetime holds time.Time values plus the layout they were
	// parsed with.
	KindDatetime
	// KindText holds free-form, high-uniqueness strings (IDs, comments).
	// Text columns are excluded from encoding and grouping menus.
	KindText
)

// String returns the user-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindDatetime:
		return "datetime"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Column is a single typed column. Exactly one of Floats, Strings, Times is
// populated, matching Kind. Null marks missing cells and always has the same
// length as the populated slice.
type Column struct {
	Name string
	Kind Kind

	Floats  []float64   // KindNumeric
	Strings []string    // KindCategorical, KindText
	Times   []time.Time // KindDatetime
	Null    []bool

	// Integer is set for numeric columns whose every non-null source value
	// parsed as an integer. It only affects export and publish DDL.
	Integer bool

	// Layout is the time layout the column was parsed with (datetime only).
	Layout string
}

// Len returns the number of cells including nulls.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Floats)
	case KindDatetime:
		return len(c.Times)
	default:
		return len(c.Strings)
	}
}

// NonNull returns the number of non-missing cells.
func (c *Column) NonNull() int {
	n := 0
	for _, isNull := range c.Null {
		if !isNull {
			n++
		}
	}
	return n
}

// FloatValues returns the non-null numeric values in row order.
// It returns nil for non-numeric columns.
func (c *Column) FloatValues() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// StringValues returns the non-null string values in row order.
// It returns nil for numeric/datetime columns.
func (c *Column) StringValues() []string {
	if c.Kind != KindCategorical && c.Kind != KindText {
		return nil
	}
	out := make([]string, 0, len(c.Strings))
	for i, v := range c.Strings {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// TimeValues returns the non-null datetime values in row order.
func (c *Column) TimeValues() []time.Time {
	if c.Kind != KindDatetime {
		return nil
	}
	out := make([]time.Time, 0, len(c.Times))
	for i, v := range c.Times {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// UniqueCount returns the number of distinct non-null values.
func (c *Column) UniqueCount() int {
	switch c.Kind {
	case KindNumeric:
		set := make(map[float64]struct{})
		for i, v := range c.Floats {
			if !c.Null[i] {
				set[v] = struct{}{}
			}
		}
		return len(set)
	case KindDatetime:
		set := make(map[int64]struct{})
		for i, v := range c.Times {
			if !c.Null[i] {
				set[v.UnixNano()] = struct{}{}
			}
		}
		return len(set)
	default:
		set := make(map[string]struct{})
		for i, v := range c.Strings {
			if !c.Null[i] {
				set[v] = struct{}{}
			}
		}
		return len(set)
	}
}

// CellString renders cell i as a string, or "" when null.
// Numeric cells use the shortest representation that round-trips; datetime
// cells use the column layout (RFC 3339 when unknown).
func (c *Column) CellString(i int) string {
	if c.Null[i] {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		if c.Integer {
			return fmt.Sprintf("%d", int64(c.Floats[i]))
		}
		return fmt.Sprintf("%g", c.Floats[i])
	case KindDatetime:
		lay := c.Layout
		if lay == "" {
			lay = time.RFC3339
		}
		return c.Times[i].Format(lay)
	default:
		return c.Strings[i]
	}
}

// validate checks internal consistency of a column against an expected length.
func (c *Column) validate(rows int) error {
	if c.Name == "" {
		return fmt.Errorf("dataset: column has empty name")
	}
	if c.Len() != rows {
		return fmt.Errorf("dataset: column %q has %d rows, want %d", c.Name, c.Len(), rows)
	}
	if len(c.Null) != rows {
		return fmt.Errorf("dataset: column %q null mask has %d entries, want %d", c.Name, len(c.Null), rows)
	}
	return nil
}

// Dataset is the in-memory table for one session.
//
// Invariants:
//   - column names are unique
//   - every column has exactly Rows() cells
//
// Dataset is not safe for concurrent use; callers hold the owning
// session's lock around every access.
type Dataset struct {
	Source string // original file name, for display/export naming

	cols   []*Column
	byName map[string]int
	rows   int
}

// New constructs a Dataset from columns. All columns must have equal,
// consistent lengths and unique names.
func New(source string, cols ...*Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: no columns")
	}
	rows := cols[0].Len()
	d := &Dataset{
		Source: source,
		byName: make(map[string]int, len(cols)),
		rows:   rows,
	}
	for _, c := range cols {
		if err := d.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the column count.
func (d *Dataset) Cols() int { return len(d.cols) }

// Columns returns the columns in order. The slice is shared; callers must
// not reorder it.
func (d *Dataset) Columns() []*Column { return d.cols }

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, bool) {
	ix, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.cols[ix], true
}

// ColumnsOfKind returns the names of columns with the given kind, in order.
func (d *Dataset) ColumnsOfKind(k Kind) []string {
	var out []string
	for _, c := range d.cols {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

// AddColumn appends a column. The name must be unused and the length must
// match the table.
func (d *Dataset) AddColumn(c *Column) error {
	if err := c.validate(d.rows); err != nil {
		return err
	}
	if _, exists := d.byName[c.Name]; exists {
		return fmt.Errorf("dataset: column %q already exists", c.Name)
	}
	d.byName[c.Name] = len(d.cols)
	d.cols = append(d.cols, c)
	return nil
}

// DropColumn removes the named column.
func (d *Dataset) DropColumn(name string) error {
	ix, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("dataset: no column %q", name)
	}
	d.cols = append(d.cols[:ix], d.cols[ix+1:]...)
	delete(d.byName, name)
	for i := ix; i < len(d.cols); i++ {
		d.byName[d.cols[i].Name] = i
	}
	return nil
}

// ReplaceColumn swaps the named column for a new one of the same length,
// keeping its position. The replacement may change name and kind.
func (d *Dataset) ReplaceColumn(name string, c *Column) error {
	ix, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("dataset: no column %q", name)
	}
	if err := c.validate(d.rows); err != nil {
		return err
	}
	if other, exists := d.byName[c.Name]; exists && other != ix {
		return fmt.Errorf("dataset: column %q already exists", c.Name)
	}
	delete(d.byName, name)
	d.cols[ix] = c
	d.byName[c.Name] = ix
	return nil
}

// Head returns up to n rows rendered as strings, for previews.
func (d *Dataset) Head(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.cols))
		for j, c := range d.cols {
			row[j] = c.CellString(i)
		}
		out = append(out, row)
	}
	return out
}

// MemoryEstimate returns a rough in-memory footprint in bytes. It is a
// display figure only.
func (d *Dataset) MemoryEstimate() int64 {
	var total int64
	for _, c := range d.cols {
		total += int64(len(c.Null))
		switch c.Kind {
		case KindNumeric:
			total += int64(len(c.Floats)) * 8
		case KindDatetime:
			total += int64(len(c.Times)) * 24
		default:
			for _, s := range c.Strings {
				total += int64(len(s)) + 16
			}
		}
	}
	return total
}
