// Package describe computes the per-column statistical summary of a table.
//
// Everything here is derived on demand from the session dataset; nothing is
// cached between requests. Moments and quantiles delegate to gonum/stat.
package describe

import (
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"datascope/internal/dataset"
)

// Float marshals like float64 but renders NaN and infinities as JSON null,
// which encoding/json otherwise rejects outright.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// Overview is the dataset-level header block.
type Overview struct {
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	MemoryBytes int64  `json:"memory_bytes"`
	Source      string `json:"source"`
}

// NumericSummary holds the moment-style statistics of a numeric column.
// Kurtosis is excess kurtosis (normal = 0).
type NumericSummary struct {
	Mean     Float `json:"mean"`
	Std      Float `json:"std"`
	Variance Float `json:"variance"`
	Min      Float `json:"min"`
	Q1       Float `json:"q1"`
	Median   Float `json:"median"`
	Q3       Float `json:"q3"`
	Max      Float `json:"max"`
	Skewness Float `json:"skewness"`
	Kurtosis Float `json:"kurtosis"`
	CV       Float `json:"cv"` // std/mean; null when mean is zero
	Range    Float `json:"range"`
}

// CategoricalSummary holds mode and dispersion of a label column.
type CategoricalSummary struct {
	Mode          string  `json:"mode"`
	ModeCount     int     `json:"mode_count"`
	LeastFrequent string  `json:"least_frequent"`
	Entropy       float64 `json:"entropy"` // nats
}

// DatetimeSummary holds the observed time range.
type DatetimeSummary struct {
	Min       time.Time `json:"min"`
	Max       time.Time `json:"max"`
	RangeDays int       `json:"range_days"`
}

// ColumnSummary is the per-column block. Exactly one of Numeric,
// Categorical, Datetime is set, matching Kind (text columns carry none).
type ColumnSummary struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Count      int     `json:"count"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_pct"`
	Unique     int     `json:"unique"`

	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Categorical *CategoricalSummary `json:"categorical,omitempty"`
	Datetime    *DatetimeSummary    `json:"datetime,omitempty"`
}

// Summary is the full describe result.
type Summary struct {
	Overview Overview        `json:"overview"`
	Columns  []ColumnSummary `json:"columns"`
}

// Describe summarizes every column of the dataset.
func Describe(ds *dataset.Dataset) Summary {
	s := Summary{
		Overview: Overview{
			Rows:        ds.Rows(),
			Cols:        ds.Cols(),
			MemoryBytes: ds.MemoryEstimate(),
			Source:      ds.Source,
		},
	}
	for _, c := range ds.Columns() {
		s.Columns = append(s.Columns, DescribeColumn(c, ds.Rows()))
	}
	return s
}

// DescribeColumn summarizes one column.
func DescribeColumn(c *dataset.Column, rows int) ColumnSummary {
	count := c.NonNull()
	missing := rows - count
	cs := ColumnSummary{
		Name:    c.Name,
		Kind:    c.Kind.String(),
		Count:   count,
		Missing: missing,
		Unique:  c.UniqueCount(),
	}
	if rows > 0 {
		cs.MissingPct = 100 * float64(missing) / float64(rows)
	}

	switch c.Kind {
	case dataset.KindNumeric:
		if vals := c.FloatValues(); len(vals) > 0 {
			cs.Numeric = describeNumeric(vals)
		}
	case dataset.KindCategorical:
		if count > 0 {
			cs.Categorical = describeCategorical(c)
		}
	case dataset.KindDatetime:
		if times := c.TimeValues(); len(times) > 0 {
			cs.Datetime = describeDatetime(times)
		}
	}
	return cs
}

func describeNumeric(vals []float64) *NumericSummary {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mean := stat.Mean(vals, nil)
	std := stat.StdDev(vals, nil)
	ns := &NumericSummary{
		Mean:     Float(mean),
		Std:      Float(std),
		Variance: Float(stat.Variance(vals, nil)),
		Min:      Float(sorted[0]),
		Q1:       Float(stat.Quantile(0.25, stat.Empirical, sorted, nil)),
		Median:   Float(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		Q3:       Float(stat.Quantile(0.75, stat.Empirical, sorted, nil)),
		Max:      Float(sorted[len(sorted)-1]),
		Skewness: Float(stat.Skew(vals, nil)),
		Kurtosis: Float(stat.ExKurtosis(vals, nil)),
	}
	ns.Range = ns.Max - ns.Min
	if mean != 0 {
		ns.CV = Float(std / mean)
	} else {
		ns.CV = Float(math.NaN())
	}
	return ns
}

func describeCategorical(c *dataset.Column) *CategoricalSummary {
	counts := ValueCounts(c)
	if len(counts) == 0 {
		return nil
	}
	cs := &CategoricalSummary{
		Mode:          counts[0].Value,
		ModeCount:     counts[0].Count,
		LeastFrequent: counts[len(counts)-1].Value,
	}

	total := 0
	for _, vc := range counts {
		total += vc.Count
	}
	if len(counts) > 1 {
		h := 0.0
		for _, vc := range counts {
			p := float64(vc.Count) / float64(total)
			h -= p * math.Log(p)
		}
		cs.Entropy = h
	}
	return cs
}

func describeDatetime(times []time.Time) *DatetimeSummary {
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return &DatetimeSummary{
		Min:       min,
		Max:       max,
		RangeDays: int(max.Sub(min).Hours() / 24),
	}
}

// ValueCount is one level of a categorical column with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts tallies the non-null values of a string column, most frequent
// first (ties broken by value for determinism). Returns nil for numeric and
// datetime columns.
func ValueCounts(c *dataset.Column) []ValueCount {
	if c.Kind != dataset.KindCategorical && c.Kind != dataset.KindText {
		return nil
	}
	counts := make(map[string]int)
	for i, v := range c.Strings {
		if !c.Null[i] {
			counts[v]++
		}
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
