// Package transform implements the feature-engineering operations that
// mutate the session table in place: scaling, categorical encoding,
// datetime decomposition, binning, and column deletion.
//
// Each operation appends derived columns (or removes columns) and leaves
// every other column untouched. Incompatible requests fail with an
// *IncompatibleError before anything is mutated.
package transform

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"datascope/internal/dataset"
)

// IncompatibleError reports an operation requested on a column that cannot
// support it. The reason is written for the user.
type IncompatibleError struct {
	Column string
	Op     string
	Reason string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%s on %q: %s", e.Op, e.Column, e.Reason)
}

func incompatible(op, column, format string, args ...any) error {
	return &IncompatibleError{Column: column, Op: op, Reason: fmt.Sprintf(format, args...)}
}

func numericColumn(ds *dataset.Dataset, op, name string) (*dataset.Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, incompatible(op, name, "column does not exist")
	}
	if c.Kind != dataset.KindNumeric {
		return nil, incompatible(op, name, "column is %s, not numeric", c.Kind)
	}
	return c, nil
}

// ScaleKind selects a numeric scaling transform.
type ScaleKind string

const (
	ScaleLog    ScaleKind = "log"
	ScaleSqrt   ScaleKind = "sqrt"
	ScaleZScore ScaleKind = "zscore"
	ScaleMinMax ScaleKind = "minmax"
)

var scaleSuffix = map[ScaleKind]string{
	ScaleLog:    "_log",
	ScaleSqrt:   "_sqrt",
	ScaleZScore: "_zscore",
	ScaleMinMax: "_norm",
}

// Scale applies a numeric scaling transform and appends the derived column.
// It returns the new column name.
//
// Domain requirements: log needs all values strictly positive, square root
// needs them non-negative, min-max needs a non-constant column.
func Scale(ds *dataset.Dataset, column string, kind ScaleKind) (string, error) {
	op := "scale/" + string(kind)
	c, err := numericColumn(ds, op, column)
	if err != nil {
		return "", err
	}
	suffix, ok := scaleSuffix[kind]
	if !ok {
		return "", incompatible(op, column, "unknown scaling %q", kind)
	}

	vals := c.FloatValues()
	if len(vals) == 0 {
		return "", incompatible(op, column, "column has no non-missing values")
	}

	out := &dataset.Column{
		Name:   column + suffix,
		Kind:   dataset.KindNumeric,
		Floats: make([]float64, ds.Rows()),
		Null:   make([]bool, ds.Rows()),
	}

	apply := func(fn func(float64) float64) {
		for i := range c.Floats {
			if c.Null[i] {
				out.Null[i] = true
				continue
			}
			out.Floats[i] = fn(c.Floats[i])
		}
	}

	switch kind {
	case ScaleLog:
		for _, v := range vals {
			if v <= 0 {
				return "", incompatible(op, column, "log requires all values > 0")
			}
		}
		apply(math.Log)

	case ScaleSqrt:
		for _, v := range vals {
			if v < 0 {
				return "", incompatible(op, column, "square root requires all values >= 0")
			}
		}
		apply(math.Sqrt)

	case ScaleZScore:
		mean := stat.Mean(vals, nil)
		std := stat.StdDev(vals, nil)
		if std == 0 {
			return "", incompatible(op, column, "column is constant; z-score is undefined")
		}
		apply(func(v float64) float64 { return (v - mean) / std })

	case ScaleMinMax:
		min, max := vals[0], vals[0]
		for _, v := range vals[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if max == min {
			return "", incompatible(op, column, "column is constant; min-max scaling is undefined")
		}
		span := max - min
		apply(func(v float64) float64 { return (v - min) / span })
	}

	if err := ds.AddColumn(out); err != nil {
		return "", err
	}
	return out.Name, nil
}

// Drop removes the named columns. Either every column is removed or, when a
// name is unknown, nothing is.
func Drop(ds *dataset.Dataset, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("transform: no columns to drop")
	}
	for _, name := range columns {
		if _, ok := ds.Column(name); !ok {
			return incompatible("drop", name, "column does not exist")
		}
	}
	if len(columns) >= ds.Cols() {
		return incompatible("drop", columns[0], "cannot drop every column")
	}
	for _, name := range columns {
		if err := ds.DropColumn(name); err != nil {
			return err
		}
	}
	return nil
}

// BinKind selects a binning strategy.
type BinKind string

const (
	BinEqualWidth     BinKind = "width"
	BinEqualFrequency BinKind = "frequency"
)

// Bin discretizes a numeric column into integer bin labels 0..bins-1 and
// appends it as <column>_bin. bins must be between 2 and 20.
func Bin(ds *dataset.Dataset, column string, kind BinKind, bins int) (string, error) {
	op := "bin/" + string(kind)
	c, err := numericColumn(ds, op, column)
	if err != nil {
		return "", err
	}
	if bins < 2 || bins > 20 {
		return "", incompatible(op, column, "bin count must be between 2 and 20, got %d", bins)
	}

	vals := c.FloatValues()
	if len(vals) == 0 {
		return "", incompatible(op, column, "column has no non-missing values")
	}

	var assign func(v float64) int
	switch kind {
	case BinEqualWidth:
		min, max := vals[0], vals[0]
		for _, v := range vals[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		if max == min {
			return "", incompatible(op, column, "column is constant; binning is undefined")
		}
		width := (max - min) / float64(bins)
		assign = func(v float64) int {
			b := int((v - min) / width)
			if b >= bins {
				b = bins - 1
			}
			return b
		}

	case BinEqualFrequency:
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		sort.Float64s(sorted)
		// Quantile edges, deduplicated the way qcut drops duplicate edges.
		edges := make([]float64, 0, bins-1)
		for i := 1; i < bins; i++ {
			q := stat.Quantile(float64(i)/float64(bins), stat.Empirical, sorted, nil)
			if len(edges) == 0 || q > edges[len(edges)-1] {
				edges = append(edges, q)
			}
		}
		if len(edges) == 0 {
			return "", incompatible(op, column, "values are too concentrated for %d frequency bins", bins)
		}
		// Right-closed intervals: a value equal to an edge falls in the
		// lower bin, matching quantile-cut semantics.
		assign = func(v float64) int {
			return sort.SearchFloat64s(edges, v)
		}

	default:
		return "", incompatible(op, column, "unknown binning %q", kind)
	}

	out := &dataset.Column{
		Name:    column + "_bin",
		Kind:    dataset.KindNumeric,
		Integer: true,
		Floats:  make([]float64, ds.Rows()),
		Null:    make([]bool, ds.Rows()),
	}
	for i := range c.Floats {
		if c.Null[i] {
			out.Null[i] = true
			continue
		}
		out.Floats[i] = float64(assign(c.Floats[i]))
	}
	if err := ds.AddColumn(out); err != nil {
		return "", err
	}
	return out.Name, nil
}
