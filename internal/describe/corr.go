package describe

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"datascope/internal/dataset"
)

// CorrMatrix computes the Pearson correlation matrix over every numeric
// column, using pairwise-complete observations. Pairs with fewer than two
// complete observations get NaN.
func CorrMatrix(ds *dataset.Dataset) (names []string, m [][]float64) {
	var cols []*dataset.Column
	for _, c := range ds.Columns() {
		if c.Kind == dataset.KindNumeric {
			cols = append(cols, c)
			names = append(names, c.Name)
		}
	}

	n := len(cols)
	m = make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pairwiseCorrelation(cols[i], cols[j])
			m[i][j] = r
			m[j][i] = r
		}
	}
	return names, m
}

func pairwiseCorrelation(a, b *dataset.Column) float64 {
	var xs, ys []float64
	for i := range a.Floats {
		if a.Null[i] || b.Null[i] {
			continue
		}
		xs = append(xs, a.Floats[i])
		ys = append(ys, b.Floats[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// CorrPair is a strongly correlated column pair.
type CorrPair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// HighCorrelations lists column pairs whose absolute Pearson correlation
// exceeds the threshold.
func HighCorrelations(ds *dataset.Dataset, threshold float64) []CorrPair {
	names, m := CorrMatrix(ds)
	var out []CorrPair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if r := m[i][j]; !math.IsNaN(r) && math.Abs(r) > threshold {
				out = append(out, CorrPair{A: names[i], B: names[j], R: r})
			}
		}
	}
	return out
}
