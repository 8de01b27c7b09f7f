package transform

import (
	"fmt"
	"sort"

	"datascope/internal/dataset"
)

// EncodeKind selects a categorical encoding.
type EncodeKind string

const (
	EncodeLabel     EncodeKind = "label"
	EncodeOneHot    EncodeKind = "onehot"
	EncodeFrequency EncodeKind = "frequency"
)

// Encode applies a categorical encoding and returns the names of the
// appended columns.
//
// Label encoding assigns integer codes by sorted distinct value; one-hot
// appends one 0/1 indicator column per category; frequency replaces each
// value with its occurrence count. Requesting an encoding on a numeric
// column is reported and skipped.
func Encode(ds *dataset.Dataset, column string, kind EncodeKind) ([]string, error) {
	op := "encode/" + string(kind)
	c, ok := ds.Column(column)
	if !ok {
		return nil, incompatible(op, column, "column does not exist")
	}
	if c.Kind != dataset.KindCategorical {
		return nil, incompatible(op, column, "column is %s; encoding needs a categorical column", c.Kind)
	}

	switch kind {
	case EncodeLabel:
		return encodeLabel(ds, c)
	case EncodeOneHot:
		return encodeOneHot(ds, c)
	case EncodeFrequency:
		return encodeFrequency(ds, c)
	default:
		return nil, incompatible(op, column, "unknown encoding %q", kind)
	}
}

func distinctSorted(c *dataset.Column) []string {
	set := make(map[string]struct{})
	for i, v := range c.Strings {
		if !c.Null[i] {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func encodeLabel(ds *dataset.Dataset, c *dataset.Column) ([]string, error) {
	levels := distinctSorted(c)
	codes := make(map[string]int, len(levels))
	for i, v := range levels {
		codes[v] = i
	}

	out := &dataset.Column{
		Name:    c.Name + "_label",
		Kind:    dataset.KindNumeric,
		Integer: true,
		Floats:  make([]float64, ds.Rows()),
		Null:    make([]bool, ds.Rows()),
	}
	for i, v := range c.Strings {
		if c.Null[i] {
			out.Null[i] = true
			continue
		}
		out.Floats[i] = float64(codes[v])
	}
	if err := ds.AddColumn(out); err != nil {
		return nil, err
	}
	return []string{out.Name}, nil
}

func encodeOneHot(ds *dataset.Dataset, c *dataset.Column) ([]string, error) {
	levels := distinctSorted(c)
	if len(levels) == 0 {
		return nil, incompatible("encode/onehot", c.Name, "column has no non-missing values")
	}
	const maxLevels = 100
	if len(levels) > maxLevels {
		return nil, incompatible("encode/onehot", c.Name,
			"column has %d categories; one-hot is capped at %d", len(levels), maxLevels)
	}

	names := make([]string, len(levels))
	seen := make(map[string]struct{}, len(levels))
	for i, lv := range levels {
		n := dataset.NormalizeName(lv)
		if n == "" {
			n = fmt.Sprintf("v%d", i+1)
		}
		name := c.Name + "_" + n
		for k := 2; ; k++ {
			if _, dup := seen[name]; !dup {
				if _, exists := ds.Column(name); !exists {
					break
				}
			}
			name = fmt.Sprintf("%s_%s_%d", c.Name, n, k)
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	for li, lv := range levels {
		out := &dataset.Column{
			Name:    names[li],
			Kind:    dataset.KindNumeric,
			Integer: true,
			Floats:  make([]float64, ds.Rows()),
			Null:    make([]bool, ds.Rows()),
		}
		for i, v := range c.Strings {
			if c.Null[i] {
				// Missing source values get all-zero indicators, matching
				// get_dummies without a NaN column.
				continue
			}
			if v == lv {
				out.Floats[i] = 1
			}
		}
		if err := ds.AddColumn(out); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func encodeFrequency(ds *dataset.Dataset, c *dataset.Column) ([]string, error) {
	counts := make(map[string]int)
	for i, v := range c.Strings {
		if !c.Null[i] {
			counts[v]++
		}
	}

	out := &dataset.Column{
		Name:    c.Name + "_freq",
		Kind:    dataset.KindNumeric,
		Integer: true,
		Floats:  make([]float64, ds.Rows()),
		Null:    make([]bool, ds.Rows()),
	}
	for i, v := range c.Strings {
		if c.Null[i] {
			out.Null[i] = true
			continue
		}
		out.Floats[i] = float64(counts[v])
	}
	if err := ds.AddColumn(out); err != nil {
		return nil, err
	}
	return []string{out.Name}, nil
}
