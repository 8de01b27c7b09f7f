package viz

import (
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// normalQuantilePairs returns the sorted sample values and the matching
// standard-normal quantiles at plotting positions (i+0.5)/n.
func normalQuantilePairs(vals []float64) (sample, theory []float64) {
	n := len(vals)
	sample = make([]float64, n)
	copy(sample, vals)
	sort.Float64s(sample)

	std := distuv.Normal{Mu: 0, Sigma: 1}
	theory = make([]float64, n)
	for i := range theory {
		theory[i] = std.Quantile((float64(i) + 0.5) / float64(n))
	}
	return sample, theory
}

// referenceLine builds the y = mean + std*z line a probability plot is
// judged against. Returns nil for degenerate samples.
func referenceLine(sample, theory []float64) *plotter.Line {
	mean := stat.Mean(sample, nil)
	std := stat.StdDev(sample, nil)
	if std == 0 || len(theory) == 0 {
		return nil
	}
	zMin, zMax := theory[0], theory[len(theory)-1]
	line, err := plotter.NewLine(plotter.XYs{
		{X: zMin, Y: mean + std*zMin},
		{X: zMax, Y: mean + std*zMax},
	})
	if err != nil {
		return nil
	}
	line.LineStyle.Width = vg.Points(1)
	return line
}
