// Package insights produces the automated advisory notes shown after an
// upload: dataset-size caveats, missing-data rates, skewed or
// outlier-heavy columns, imbalanced categories, and redundant correlated
// pairs. Thresholds are fixed.
package insights

import (
	"fmt"
	"math"

	"datascope/internal/dataset"
	"datascope/internal/describe"
	"datascope/internal/quality"
)

// Insight is one advisory note.
type Insight struct {
	Severity string `json:"severity"` // "info" or "warn"
	Message  string `json:"message"`
}

func info(format string, args ...any) Insight {
	return Insight{Severity: "info", Message: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) Insight {
	return Insight{Severity: "warn", Message: fmt.Sprintf(format, args...)}
}

// Generate runs every heuristic against the dataset.
func Generate(ds *dataset.Dataset) []Insight {
	var out []Insight

	rows, cols := ds.Rows(), ds.Cols()
	if rows > 100000 {
		out = append(out, info("large dataset (%d rows); consider sampling for faster analysis", rows))
	} else if rows < 100 {
		out = append(out, info("small dataset (%d rows); results may not be statistically significant", rows))
	}

	if rows > 0 && cols > 0 {
		missing := 0
		for _, c := range ds.Columns() {
			missing += rows - c.NonNull()
		}
		pct := 100 * float64(missing) / float64(rows*cols)
		if pct > 20 {
			out = append(out, warn("high missing data rate (%.1f%%); consider cleaning before analysis", pct))
		} else if pct > 5 {
			out = append(out, info("moderate missing data rate (%.1f%%); review missing-value patterns", pct))
		}
	}

	for _, c := range ds.Columns() {
		switch c.Kind {
		case dataset.KindNumeric:
			out = append(out, numericInsights(c, rows)...)
		case dataset.KindCategorical:
			out = append(out, categoricalInsights(c, rows)...)
		}
	}

	if pairs := describe.HighCorrelations(ds, 0.8); len(pairs) > 0 {
		out = append(out, info("%d highly correlated column pairs (|r| > 0.8); consider dropping redundant columns", len(pairs)))
	}

	return out
}

func numericInsights(c *dataset.Column, rows int) []Insight {
	var out []Insight
	vals := c.FloatValues()
	if len(vals) < 3 {
		return nil
	}

	sum := describe.DescribeColumn(c, rows)
	if sum.Numeric != nil && math.Abs(float64(sum.Numeric.Skewness)) > 2 {
		out = append(out, info("%q is highly skewed (%.2f); a log or square-root transform may help", c.Name, sum.Numeric.Skewness))
	}

	if flag, ok := quality.IQROutliers(c); ok && rows > 0 {
		if float64(flag.Count) > 0.05*float64(rows) {
			out = append(out, warn("%q has many outliers (%d values beyond the IQR fences)", c.Name, flag.Count))
		}
	}
	return out
}

func categoricalInsights(c *dataset.Column, rows int) []Insight {
	var out []Insight
	nonNull := c.NonNull()
	if nonNull == 0 {
		return nil
	}

	if ratio := float64(c.UniqueCount()) / float64(nonNull); ratio > 0.8 {
		out = append(out, info("%q has high cardinality (%.0f%% unique); consider grouping before encoding", c.Name, 100*ratio))
	}

	counts := describe.ValueCounts(c)
	if len(counts) > 1 {
		top := float64(counts[0].Count)
		bottom := float64(counts[len(counts)-1].Count)
		if bottom > 0 && top/bottom > 10 {
			out = append(out, info("%q is imbalanced (most common level is %.0fx the rarest)", c.Name, top/bottom))
		}
	}
	return out
}
