package viz

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"datascope/internal/dataset"
	"datascope/internal/describe"
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 is drawn
// at the bottom, so Z flips the row index to keep the diagonal readable
// top-left to bottom-right.
type corrGrid struct {
	m [][]float64
}

func (g corrGrid) Dims() (int, int) { return len(g.m), len(g.m) }
func (g corrGrid) X(c int) float64  { return float64(c) }
func (g corrGrid) Y(r int) float64  { return float64(r) }

func (g corrGrid) Z(c, r int) float64 {
	v := g.m[len(g.m)-1-r][c]
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CorrelationHeatmap renders the Pearson correlation matrix of all numeric
// columns on a diverging palette fixed to [-1, 1].
func CorrelationHeatmap(ds *dataset.Dataset) ([]byte, error) {
	names, m := describe.CorrMatrix(ds)
	if len(names) < 2 {
		return nil, chartErrorf("the correlation heatmap needs at least 2 numeric columns, have %d", len(names))
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	h := plotter.NewHeatMap(corrGrid{m: m}, cm.Palette(255))
	h.Min = -1
	h.Max = 1

	p := plot.New()
	p.Title.Text = "Correlation heatmap"
	p.Add(h)
	p.NominalX(names...)

	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}
	p.NominalY(reversed...)
	return render(p)
}

// QQ renders a normal quantile-quantile plot of a numeric column with a
// 45-degree reference line through the quartiles.
func QQ(ds *dataset.Dataset, column string) ([]byte, error) {
	vals, err := numericValues(ds, column)
	if err != nil {
		return nil, err
	}
	if len(vals) < 3 {
		return nil, chartErrorf("a Q-Q plot needs at least 3 values in %q", column)
	}

	sample, theory := normalQuantilePairs(vals)
	pts := make(plotter.XYs, len(sample))
	for i := range sample {
		pts[i] = plotter.XY{X: theory[i], Y: sample[i]}
	}

	p := plot.New()
	p.Title.Text = "Q-Q plot for " + column
	p.X.Label.Text = "theoretical quantiles"
	p.Y.Label.Text = "sample quantiles"

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("viz: qq scatter: %w", err)
	}
	p.Add(s)

	line := referenceLine(sample, theory)
	if line != nil {
		p.Add(line)
	}
	return render(p)
}
