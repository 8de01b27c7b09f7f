// Package viz renders the standard chart set as PNGs with gonum/plot.
// Every renderer is a pass-through from the current table to a plotter;
// there is no chart state between requests.
package viz

import (
	"bytes"
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"datascope/internal/dataset"
	"datascope/internal/describe"
)

// ChartError reports a chart requested on incompatible columns. The
// message is written for the user.
type ChartError struct {
	Msg string
}

func (e *ChartError) Error() string { return e.Msg }

func chartErrorf(format string, args ...any) error {
	return &ChartError{Msg: fmt.Sprintf(format, args...)}
}

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// render encodes a finished plot as PNG bytes.
func render(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("viz: encode png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("viz: write png: %w", err)
	}
	return buf.Bytes(), nil
}

func numericValues(ds *dataset.Dataset, name string) ([]float64, error) {
	c, ok := ds.Column(name)
	if !ok {
		return nil, chartErrorf("column %q does not exist", name)
	}
	if c.Kind != dataset.KindNumeric {
		return nil, chartErrorf("column %q is %s; this chart needs a numeric column", name, c.Kind)
	}
	vals := c.FloatValues()
	if len(vals) == 0 {
		return nil, chartErrorf("column %q has no non-missing values", name)
	}
	return vals, nil
}

// Histogram renders the distribution of a numeric column. bins <= 0 falls
// back to 30 bins.
func Histogram(ds *dataset.Dataset, column string, bins int) ([]byte, error) {
	vals, err := numericValues(ds, column)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		bins = 30
	}

	p := plot.New()
	p.Title.Text = "Distribution of " + column
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return nil, fmt.Errorf("viz: histogram: %w", err)
	}
	p.Add(h)
	return render(p)
}

// Bar renders the top-k category counts of a label column.
func Bar(ds *dataset.Dataset, column string, topK int) ([]byte, error) {
	c, ok := ds.Column(column)
	if !ok {
		return nil, chartErrorf("column %q does not exist", column)
	}
	if c.Kind != dataset.KindCategorical && c.Kind != dataset.KindText {
		return nil, chartErrorf("column %q is %s; the bar chart needs a categorical column", column, c.Kind)
	}
	counts := describe.ValueCounts(c)
	if len(counts) == 0 {
		return nil, chartErrorf("column %q has no non-missing values", column)
	}
	if topK <= 0 {
		topK = 10
	}
	if len(counts) > topK {
		counts = counts[:topK]
	}

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, vc := range counts {
		values[i] = float64(vc.Count)
		labels[i] = vc.Value
	}

	p := plot.New()
	p.Title.Text = "Top categories in " + column
	p.Y.Label.Text = "count"

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return nil, fmt.Errorf("viz: bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)
	return render(p)
}

// Scatter renders one numeric column against another, pairwise-complete.
func Scatter(ds *dataset.Dataset, xCol, yCol string) ([]byte, error) {
	x, ok := ds.Column(xCol)
	if !ok || x.Kind != dataset.KindNumeric {
		return nil, chartErrorf("x column %q must be numeric", xCol)
	}
	y, ok := ds.Column(yCol)
	if !ok || y.Kind != dataset.KindNumeric {
		return nil, chartErrorf("y column %q must be numeric", yCol)
	}

	var pts plotter.XYs
	for i := range x.Floats {
		if x.Null[i] || y.Null[i] {
			continue
		}
		pts = append(pts, plotter.XY{X: x.Floats[i], Y: y.Floats[i]})
	}
	if len(pts) == 0 {
		return nil, chartErrorf("%q and %q have no overlapping values", xCol, yCol)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", yCol, xCol)
	p.X.Label.Text = xCol
	p.Y.Label.Text = yCol

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("viz: scatter: %w", err)
	}
	s.Radius = vg.Points(2)
	p.Add(s)
	return render(p)
}

// TimeSeries renders a numeric column over a datetime column, sorted by
// time, with date ticks.
func TimeSeries(ds *dataset.Dataset, timeCol, valueCol string) ([]byte, error) {
	tc, ok := ds.Column(timeCol)
	if !ok || tc.Kind != dataset.KindDatetime {
		return nil, chartErrorf("column %q must be a datetime column", timeCol)
	}
	vc, ok := ds.Column(valueCol)
	if !ok || vc.Kind != dataset.KindNumeric {
		return nil, chartErrorf("column %q must be numeric", valueCol)
	}

	var pts plotter.XYs
	for i := range tc.Times {
		if tc.Null[i] || vc.Null[i] {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(tc.Times[i].Unix()), Y: vc.Floats[i]})
	}
	if len(pts) == 0 {
		return nil, chartErrorf("%q and %q have no overlapping values", timeCol, valueCol)
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s over %s", valueCol, timeCol)
	p.X.Label.Text = timeCol
	p.Y.Label.Text = valueCol
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("viz: line: %w", err)
	}
	p.Add(l)
	return render(p)
}

// Box renders a box-and-whisker plot of a numeric column.
func Box(ds *dataset.Dataset, column string) ([]byte, error) {
	vals, err := numericValues(ds, column)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "Box plot of " + column
	p.Y.Label.Text = column

	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(vals))
	if err != nil {
		return nil, fmt.Errorf("viz: box plot: %w", err)
	}
	p.Add(b)
	p.NominalX(column)
	return render(p)
}
