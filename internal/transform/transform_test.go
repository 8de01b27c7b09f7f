package transform

import (
	"errors"
	"math"
	"testing"
	"time"

	"datascope/internal/dataset"
)

func numCol(name string, vals ...float64) *dataset.Column {
	return &dataset.Column{
		Name:   name,
		Kind:   dataset.KindNumeric,
		Floats: vals,
		Null:   make([]bool, len(vals)),
	}
}

func catCol(name string, vals ...string) *dataset.Column {
	return &dataset.Column{
		Name:    name,
		Kind:    dataset.KindCategorical,
		Strings: vals,
		Null:    make([]bool, len(vals)),
	}
}

func mustDataset(t *testing.T, cols ...*dataset.Column) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("t.csv", cols...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ds
}

func wantIncompatible(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("err = nil, want incompatible error")
	}
	var ie *IncompatibleError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v (%T), want *IncompatibleError", err, err)
	}
}

func column(t *testing.T, ds *dataset.Dataset, name string) *dataset.Column {
	t.Helper()
	c, ok := ds.Column(name)
	if !ok {
		t.Fatalf("column %q not added", name)
	}
	return c
}

func TestScaleZScore(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2, 3, 4, 5))
	name, err := Scale(ds, "x", ScaleZScore)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if name != "x_zscore" {
		t.Fatalf("name = %q", name)
	}
	c := column(t, ds, name)
	std := math.Sqrt(2.5)
	want := []float64{-2 / std, -1 / std, 0, 1 / std, 2 / std}
	for i, w := range want {
		if math.Abs(c.Floats[i]-w) > 1e-9 {
			t.Errorf("z[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestScaleMinMax(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 10, 20, 30))
	name, err := Scale(ds, "x", ScaleMinMax)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	c := column(t, ds, name)
	for i, w := range []float64{0, 0.5, 1} {
		if math.Abs(c.Floats[i]-w) > 1e-9 {
			t.Errorf("norm[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestScaleLogPreservesNulls(t *testing.T) {
	t.Parallel()

	src := numCol("x", 1, 0, math.E)
	src.Null[1] = true
	ds := mustDataset(t, src)
	name, err := Scale(ds, "x", ScaleLog)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	c := column(t, ds, name)
	if !c.Null[1] {
		t.Fatal("null not preserved")
	}
	if c.Floats[0] != 0 || math.Abs(c.Floats[2]-1) > 1e-9 {
		t.Fatalf("log values = %v", c.Floats)
	}
}

func TestScaleDomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		col  *dataset.Column
		kind ScaleKind
	}{
		{"log nonpositive", numCol("x", 1, 0, 3), ScaleLog},
		{"sqrt negative", numCol("x", 4, -1), ScaleSqrt},
		{"zscore constant", numCol("x", 5, 5, 5), ScaleZScore},
		{"minmax constant", numCol("x", 5, 5, 5), ScaleMinMax},
		{"unknown kind", numCol("x", 1, 2), ScaleKind("cube")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ds := mustDataset(t, tt.col)
			_, err := Scale(ds, "x", tt.kind)
			wantIncompatible(t, err)
			if ds.Cols() != 1 {
				t.Fatalf("failed scale mutated the table: %v", ds.ColumnNames())
			}
		})
	}
}

func TestScaleOnCategorical(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, catCol("label", "a", "b"))
	_, err := Scale(ds, "label", ScaleLog)
	wantIncompatible(t, err)
}

func TestEncodeLabel(t *testing.T) {
	t.Parallel()

	src := catCol("color", "red", "blue", "", "red", "green")
	src.Null[2] = true
	ds := mustDataset(t, src)
	added, err := Encode(ds, "color", EncodeLabel)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(added) != 1 || added[0] != "color_label" {
		t.Fatalf("added = %v", added)
	}
	c := column(t, ds, "color_label")
	if !c.Integer {
		t.Fatal("label codes must be integer")
	}
	// Codes by sorted level: blue=0, green=1, red=2.
	want := []float64{2, 0, 0, 2, 1}
	for i, w := range want {
		if i == 2 {
			if !c.Null[i] {
				t.Error("null source row must stay null")
			}
			continue
		}
		if c.Floats[i] != w {
			t.Errorf("code[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestEncodeOneHot(t *testing.T) {
	t.Parallel()

	src := catCol("color", "red", "blue", "", "red")
	src.Null[2] = true
	ds := mustDataset(t, src)
	added, err := Encode(ds, "color", EncodeOneHot)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(added) != 2 || added[0] != "color_blue" || added[1] != "color_red" {
		t.Fatalf("added = %v", added)
	}
	blue := column(t, ds, "color_blue")
	red := column(t, ds, "color_red")
	if blue.Floats[1] != 1 || red.Floats[0] != 1 || red.Floats[3] != 1 {
		t.Fatalf("indicators wrong: blue=%v red=%v", blue.Floats, red.Floats)
	}
	// Missing source rows carry all-zero indicators, not nulls.
	if blue.Null[2] || red.Null[2] || blue.Floats[2] != 0 || red.Floats[2] != 0 {
		t.Fatal("null row must be all-zero indicators")
	}
}

func TestEncodeFrequency(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, catCol("v", "a", "b", "a", "a"))
	added, err := Encode(ds, "v", EncodeFrequency)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	c := column(t, ds, added[0])
	want := []float64{3, 1, 3, 3}
	for i, w := range want {
		if c.Floats[i] != w {
			t.Errorf("freq[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestEncodeOnNumeric(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2))
	_, err := Encode(ds, "x", EncodeLabel)
	wantIncompatible(t, err)
}

func TestDecomposeDatetime(t *testing.T) {
	t.Parallel()

	// 2024-06-15 is a Saturday.
	times := []time.Time{
		time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 2, 3, 0, 0, 0, time.UTC), // Monday
	}
	ds := mustDataset(t, &dataset.Column{
		Name:  "ts",
		Kind:  dataset.KindDatetime,
		Times: times,
		Null:  make([]bool, len(times)),
	})

	added, err := DecomposeDatetime(ds, "ts", []DatetimeFeature{
		FeatureYear, FeatureMonth, FeatureQuarter, FeatureDayOfWeek, FeatureIsWeekend,
	})
	if err != nil {
		t.Fatalf("DecomposeDatetime: %v", err)
	}
	if len(added) != 5 {
		t.Fatalf("added = %v", added)
	}

	checks := map[string][]float64{
		"ts_year":       {2024, 2023},
		"ts_month":      {6, 1},
		"ts_quarter":    {2, 1},
		"ts_dow":        {5, 0},
		"ts_is_weekend": {1, 0},
	}
	for name, want := range checks {
		c := column(t, ds, name)
		for i, w := range want {
			if c.Floats[i] != w {
				t.Errorf("%s[%d] = %v, want %v", name, i, c.Floats[i], w)
			}
		}
	}
}

func TestDecomposeDatetimeRequirements(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2))
	_, err := DecomposeDatetime(ds, "x", []DatetimeFeature{FeatureYear})
	wantIncompatible(t, err)

	ds2 := mustDataset(t, &dataset.Column{
		Name:  "ts",
		Kind:  dataset.KindDatetime,
		Times: []time.Time{time.Now()},
		Null:  []bool{false},
	})
	_, err = DecomposeDatetime(ds2, "ts", nil)
	wantIncompatible(t, err)
	_, err = DecomposeDatetime(ds2, "ts", []DatetimeFeature{"century"})
	wantIncompatible(t, err)
}

func TestBinEqualWidth(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 0, 1, 2, 3, 4, 5, 6, 7, 8, 9))
	name, err := Bin(ds, "x", BinEqualWidth, 3)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	c := column(t, ds, name)
	if !c.Integer {
		t.Fatal("bin labels must be integer")
	}
	// Width 3: [0,3) -> 0, [3,6) -> 1, [6,9] -> 2; the max lands in the top bin.
	want := []float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 2}
	for i, w := range want {
		if c.Floats[i] != w {
			t.Errorf("bin[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestBinEqualFrequency(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2, 3, 4, 5, 6))
	name, err := Bin(ds, "x", BinEqualFrequency, 2)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	c := column(t, ds, name)
	want := []float64{0, 0, 0, 1, 1, 1}
	for i, w := range want {
		if c.Floats[i] != w {
			t.Errorf("bin[%d] = %v, want %v", i, c.Floats[i], w)
		}
	}
}

func TestBinRequirements(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2, 3), numCol("flat", 7, 7, 7))
	if _, err := Bin(ds, "x", BinEqualWidth, 1); err == nil {
		t.Fatal("bins=1 accepted")
	}
	if _, err := Bin(ds, "x", BinEqualWidth, 21); err == nil {
		t.Fatal("bins=21 accepted")
	}
	_, err := Bin(ds, "flat", BinEqualWidth, 3)
	wantIncompatible(t, err)
	_, err = Bin(ds, "flat", BinEqualFrequency, 3)
	wantIncompatible(t, err)
}

func TestDrop(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("a", 1), numCol("b", 2), numCol("c", 3))
	if err := Drop(ds, []string{"b"}); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if got := ds.ColumnNames(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("columns = %v", got)
	}
}

func TestDropAllOrNothing(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("a", 1), numCol("b", 2))
	err := Drop(ds, []string{"a", "nope"})
	wantIncompatible(t, err)
	if ds.Cols() != 2 {
		t.Fatal("partial drop happened")
	}
	// Removing every column is refused.
	err = Drop(ds, []string{"a", "b"})
	wantIncompatible(t, err)
}

func TestApplyDispatch(t *testing.T) {
	t.Parallel()

	ds := mustDataset(t, numCol("x", 1, 2, 3, 4))
	added, err := Apply(ds, Request{Op: "scale", Column: "x", Kind: "sqrt"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(added) != 1 || added[0] != "x_sqrt" {
		t.Fatalf("added = %v", added)
	}

	if _, err := Apply(ds, Request{Op: "compress", Column: "x"}); err == nil {
		t.Fatal("unknown op accepted")
	}
}
