// Package quality applies the fixed data-quality heuristics: duplicated
// rows, constant columns, high-cardinality label columns, and numeric
// outliers by the 1.5x interquartile-range rule.
package quality

import (
	"crypto/sha256"
	"sort"

	"gonum.org/v1/gonum/stat"

	"datascope/internal/dataset"
)

// OutlierFlag reports IQR outliers in one numeric column.
type OutlierFlag struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// MissingEntry reports missing cells in one column.
type MissingEntry struct {
	Column     string  `json:"column"`
	Count      int     `json:"count"`
	MissingPct float64 `json:"missing_pct"`
}

// Report is the full data-quality assessment.
type Report struct {
	DuplicateRows   int            `json:"duplicate_rows"`
	ConstantColumns []string       `json:"constant_columns"`
	HighCardinality []string       `json:"high_cardinality"`
	Outliers        []OutlierFlag  `json:"outliers"`
	Missing         []MissingEntry `json:"missing"`
}

// highCardinalityRatio is the distinct/rows threshold above which a label
// column is flagged.
const highCardinalityRatio = 0.5

// Assess runs every quality check against the dataset.
func Assess(ds *dataset.Dataset) Report {
	r := Report{
		DuplicateRows: DuplicateRows(ds),
	}

	rows := ds.Rows()
	for _, c := range ds.Columns() {
		if c.NonNull() > 0 && c.UniqueCount() <= 1 {
			r.ConstantColumns = append(r.ConstantColumns, c.Name)
		}

		switch c.Kind {
		case dataset.KindCategorical, dataset.KindText:
			if rows > 0 && float64(c.UniqueCount()) > highCardinalityRatio*float64(rows) {
				r.HighCardinality = append(r.HighCardinality, c.Name)
			}
		case dataset.KindNumeric:
			if flag, ok := IQROutliers(c); ok && flag.Count > 0 {
				r.Outliers = append(r.Outliers, flag)
			}
		}

		if missing := rows - c.NonNull(); missing > 0 {
			r.Missing = append(r.Missing, MissingEntry{
				Column:     c.Name,
				Count:      missing,
				MissingPct: 100 * float64(missing) / float64(rows),
			})
		}
	}

	sort.Slice(r.Missing, func(i, j int) bool { return r.Missing[i].Count > r.Missing[j].Count })
	return r
}

// IQROutliers computes the standard 1.5x IQR fence for a numeric column and
// counts values outside it. ok is false for non-numeric or empty columns.
func IQROutliers(c *dataset.Column) (OutlierFlag, bool) {
	vals := c.FloatValues()
	if len(vals) == 0 {
		return OutlierFlag{}, false
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1

	flag := OutlierFlag{
		Column: c.Name,
		Lower:  q1 - 1.5*iqr,
		Upper:  q3 + 1.5*iqr,
	}
	for _, v := range vals {
		if v < flag.Lower || v > flag.Upper {
			flag.Count++
		}
	}
	return flag, true
}

// DuplicateRows counts rows that are exact duplicates of an earlier row.
// Rows are compared by a canonical SHA-256 over their rendered cells, with
// nulls encoded distinctly from empty strings.
func DuplicateRows(ds *dataset.Dataset) int {
	cols := ds.Columns()
	seen := make(map[[32]byte]struct{}, ds.Rows())
	dups := 0
	for i := 0; i < ds.Rows(); i++ {
		h := sha256.New()
		for _, c := range cols {
			if c.Null[i] {
				h.Write([]byte{0x00})
			} else {
				h.Write([]byte(c.CellString(i)))
			}
			h.Write([]byte{0x1f}) // unit separator between cells
		}
		var sum [32]byte
		h.Sum(sum[:0])
		if _, dup := seen[sum]; dup {
			dups++
		} else {
			seen[sum] = struct{}{}
		}
	}
	return dups
}
