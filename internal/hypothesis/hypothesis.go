// Package hypothesis runs the fixed menu of statistical tests: normality,
// two-sample t-test, chi-square independence, and Pearson correlation.
//
// Test statistics and p-values come from go-moremath (t-test) and gonum
// distributions (chi-square, Student's t, normal); nothing here re-derives
// a test beyond the textbook statistic it feeds into those libraries.
package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"datascope/internal/dataset"
)

// Alpha is the fixed significance level used for verdicts.
const Alpha = 0.05

// RequirementError reports a test precondition the current data does not
// meet (wrong column type, too few observations). The message is written
// for the user, who is expected to pick different columns and retry.
type RequirementError struct {
	Msg string
}

func (e *RequirementError) Error() string { return e.Msg }

func reqErrorf(format string, args ...any) error {
	return &RequirementError{Msg: fmt.Sprintf(format, args...)}
}

// numericColumn fetches a numeric column or explains why it cannot be used.
func numericColumn(ds *dataset.Dataset, name string) (*dataset.Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, reqErrorf("column %q does not exist", name)
	}
	if c.Kind != dataset.KindNumeric {
		return nil, reqErrorf("column %q is %s; this test needs a numeric column", name, c.Kind)
	}
	return c, nil
}

func categoricalColumn(ds *dataset.Dataset, name string) (*dataset.Column, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, reqErrorf("column %q does not exist", name)
	}
	if c.Kind != dataset.KindCategorical {
		return nil, reqErrorf("column %q is %s; this test needs a categorical column", name, c.Kind)
	}
	return c, nil
}

// NormalityResult reports both normality checks on one column.
type NormalityResult struct {
	Column string `json:"column"`
	N      int    `json:"n"`

	DAgostinoStat float64 `json:"dagostino_stat"`
	DAgostinoP    float64 `json:"dagostino_p"`

	KSStat float64 `json:"ks_stat"`
	KSP    float64 `json:"ks_p"`

	Normal bool `json:"normal"` // both p-values above Alpha
}

// Normality runs the D'Agostino-Pearson K-squared test and a one-sample
// Kolmogorov-Smirnov test against the fitted normal.
//
// maxSample bounds the K-squared sample; the statistic loses meaning on
// very large inputs. 0 means no cap. Requires at least 8 observations.
func Normality(ds *dataset.Dataset, column string, maxSample int) (*NormalityResult, error) {
	c, err := numericColumn(ds, column)
	if err != nil {
		return nil, err
	}
	vals := c.FloatValues()
	if len(vals) < 8 {
		return nil, reqErrorf("normality test needs at least 8 non-missing values in %q, have %d", column, len(vals))
	}

	sample := vals
	if maxSample > 0 && len(sample) > maxSample {
		sample = strideSample(sample, maxSample)
	}

	k2, k2p := dagostinoK2(sample)
	ksD, ksP := ksNormal(vals)

	return &NormalityResult{
		Column:        column,
		N:             len(sample),
		DAgostinoStat: k2,
		DAgostinoP:    k2p,
		KSStat:        ksD,
		KSP:           ksP,
		Normal:        k2p > Alpha && ksP > Alpha,
	}, nil
}

// strideSample deterministically thins vals to at most n elements.
func strideSample(vals []float64, n int) []float64 {
	out := make([]float64, 0, n)
	for _, i := range sampleRows(len(vals), n) {
		out = append(out, vals[i])
	}
	return out
}

// sampleRows returns the row indices a test should scan: all of them when
// total fits the cap, otherwise an evenly strided subset of maxSample rows.
// maxSample <= 0 disables the cap.
func sampleRows(total, maxSample int) []int {
	if maxSample <= 0 || total <= maxSample {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, maxSample)
	step := float64(total) / float64(maxSample)
	for i := 0; i < maxSample; i++ {
		idx = append(idx, int(float64(i)*step))
	}
	return idx
}

// GroupStats describes one side of a two-sample comparison.
type GroupStats struct {
	Label string  `json:"label"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// TTestResult reports an independent two-sample t-test.
type TTestResult struct {
	NumericColumn string        `json:"numeric_column"`
	GroupColumn   string        `json:"group_column"`
	Groups        [2]GroupStats `json:"groups"`
	T             float64       `json:"t"`
	DoF           float64       `json:"dof"`
	P             float64       `json:"p"`
	Significant   bool          `json:"significant"`
}

// TTest splits a numeric column by a categorical column with exactly two
// levels and tests the difference in means (Student's equal-variance
// two-sample t-test). maxSample bounds how many rows are scanned; 0 means
// all rows.
func TTest(ds *dataset.Dataset, numericCol, groupCol string, maxSample int) (*TTestResult, error) {
	num, err := numericColumn(ds, numericCol)
	if err != nil {
		return nil, err
	}
	grp, err := categoricalColumn(ds, groupCol)
	if err != nil {
		return nil, err
	}

	// Collect the group levels over rows where both cells are present.
	byLevel := make(map[string][]float64)
	var levels []string
	for _, i := range sampleRows(ds.Rows(), maxSample) {
		if num.Null[i] || grp.Null[i] {
			continue
		}
		lv := grp.Strings[i]
		if _, seen := byLevel[lv]; !seen {
			levels = append(levels, lv)
		}
		byLevel[lv] = append(byLevel[lv], num.Floats[i])
	}
	if len(levels) != 2 {
		return nil, reqErrorf("t-test needs a grouping column with exactly 2 levels; %q has %d", groupCol, len(levels))
	}
	sort.Strings(levels)

	g1, g2 := byLevel[levels[0]], byLevel[levels[1]]
	if len(g1) < 2 || len(g2) < 2 {
		return nil, reqErrorf("t-test needs at least 2 observations per group (have %d and %d)", len(g1), len(g2))
	}

	res, err := stats.TwoSampleTTest(
		stats.Sample{Xs: g1},
		stats.Sample{Xs: g2},
		stats.LocationDiffers,
	)
	if err != nil {
		return nil, reqErrorf("t-test on %q by %q: %v", numericCol, groupCol, err)
	}

	out := &TTestResult{
		NumericColumn: numericCol,
		GroupColumn:   groupCol,
		T:             res.T,
		DoF:           res.DoF,
		P:             res.P,
		Significant:   res.P < Alpha,
	}
	out.Groups[0] = GroupStats{Label: levels[0], N: len(g1), Mean: stat.Mean(g1, nil), Std: stat.StdDev(g1, nil)}
	out.Groups[1] = GroupStats{Label: levels[1], N: len(g2), Mean: stat.Mean(g2, nil), Std: stat.StdDev(g2, nil)}
	return out, nil
}

// ChiSquareResult reports a chi-square test of independence.
type ChiSquareResult struct {
	Columns     [2]string `json:"columns"`
	RowLevels   []string  `json:"row_levels"`
	ColLevels   []string  `json:"col_levels"`
	Observed    [][]int   `json:"observed"`
	Chi2        float64   `json:"chi2"`
	DoF         int       `json:"dof"`
	P           float64   `json:"p"`
	Significant bool      `json:"significant"`
}

// ChiSquare builds the contingency table of two categorical columns and
// tests independence. The table must be at least 2x2. maxSample bounds how
// many rows are counted; 0 means all rows.
func ChiSquare(ds *dataset.Dataset, colA, colB string, maxSample int) (*ChiSquareResult, error) {
	if colA == colB {
		return nil, reqErrorf("chi-square test needs two different columns")
	}
	a, err := categoricalColumn(ds, colA)
	if err != nil {
		return nil, err
	}
	b, err := categoricalColumn(ds, colB)
	if err != nil {
		return nil, err
	}

	type cell struct{ r, c string }
	counts := make(map[cell]int)
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	total := 0
	for _, i := range sampleRows(ds.Rows(), maxSample) {
		if a.Null[i] || b.Null[i] {
			continue
		}
		counts[cell{a.Strings[i], b.Strings[i]}]++
		rowSet[a.Strings[i]] = struct{}{}
		colSet[b.Strings[i]] = struct{}{}
		total++
	}

	rows := sortedKeys(rowSet)
	cols := sortedKeys(colSet)
	if len(rows) < 2 || len(cols) < 2 {
		return nil, reqErrorf("contingency table of %q x %q is %dx%d; chi-square needs at least 2x2",
			colA, colB, len(rows), len(cols))
	}

	observed := make([][]int, len(rows))
	rowTotals := make([]float64, len(rows))
	colTotals := make([]float64, len(cols))
	for i, rv := range rows {
		observed[i] = make([]int, len(cols))
		for j, cv := range cols {
			n := counts[cell{rv, cv}]
			observed[i][j] = n
			rowTotals[i] += float64(n)
			colTotals[j] += float64(n)
		}
	}

	chi2 := 0.0
	for i := range rows {
		for j := range cols {
			expected := rowTotals[i] * colTotals[j] / float64(total)
			if expected == 0 {
				continue
			}
			diff := float64(observed[i][j]) - expected
			chi2 += diff * diff / expected
		}
	}
	dof := (len(rows) - 1) * (len(cols) - 1)
	p := distuv.ChiSquared{K: float64(dof)}.Survival(chi2)

	return &ChiSquareResult{
		Columns:     [2]string{colA, colB},
		RowLevels:   rows,
		ColLevels:   cols,
		Observed:    observed,
		Chi2:        chi2,
		DoF:         dof,
		P:           p,
		Significant: p < Alpha,
	}, nil
}

// CorrelationResult reports a Pearson correlation test.
type CorrelationResult struct {
	Columns     [2]string `json:"columns"`
	N           int       `json:"n"`
	R           float64   `json:"r"`
	T           float64   `json:"t"`
	P           float64   `json:"p"`
	Significant bool      `json:"significant"`
}

// Correlation tests whether two numeric columns are linearly correlated,
// using pairwise-complete observations. maxSample bounds how many rows are
// scanned; 0 means all rows.
func Correlation(ds *dataset.Dataset, colA, colB string, maxSample int) (*CorrelationResult, error) {
	if colA == colB {
		return nil, reqErrorf("correlation test needs two different columns")
	}
	a, err := numericColumn(ds, colA)
	if err != nil {
		return nil, err
	}
	b, err := numericColumn(ds, colB)
	if err != nil {
		return nil, err
	}

	var xs, ys []float64
	for _, i := range sampleRows(ds.Rows(), maxSample) {
		if a.Null[i] || b.Null[i] {
			continue
		}
		xs = append(xs, a.Floats[i])
		ys = append(ys, b.Floats[i])
	}
	n := len(xs)
	if n < 3 {
		return nil, reqErrorf("correlation test needs at least 3 paired observations of %q and %q, have %d", colA, colB, n)
	}

	r := stat.Correlation(xs, ys, nil)
	if math.Abs(r) >= 1 {
		// Perfectly collinear: t is unbounded, p is zero.
		return &CorrelationResult{Columns: [2]string{colA, colB}, N: n, R: r, T: math.Inf(1), P: 0, Significant: true}, nil
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * tdist.Survival(math.Abs(t))

	return &CorrelationResult{
		Columns:     [2]string{colA, colB},
		N:           n,
		R:           r,
		T:           t,
		P:           p,
		Significant: p < Alpha,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
