package dataset

import (
	"reflect"
	"testing"
)

func numCol(name string, vals ...float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Floats: vals, Null: make([]bool, len(vals))}
}

func strCol(name string, vals ...string) *Column {
	return &Column{Name: name, Kind: KindCategorical, Strings: vals, Null: make([]bool, len(vals))}
}

//
// New / AddColumn invariants
//

func TestNewRejectsBadShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cols []*Column
	}{
		{"no columns", nil},
		{"length mismatch", []*Column{numCol("a", 1, 2), numCol("b", 1)}},
		{"duplicate names", []*Column{numCol("a", 1), numCol("a", 2)}},
		{"empty name", []*Column{numCol("", 1)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New("t.csv", tt.cols...); err == nil {
				t.Fatalf("New(%s) should fail", tt.name)
			}
		})
	}
}

//
// mutation surface
//

func TestDropAndReplaceColumn(t *testing.T) {
	t.Parallel()

	ds, err := New("t.csv", numCol("a", 1, 2), strCol("b", "x", "y"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := ds.DropColumn("missing"); err == nil {
		t.Fatalf("dropping unknown column should fail")
	}
	if err := ds.DropColumn("a"); err != nil {
		t.Fatalf("DropColumn: %v", err)
	}
	if got := ds.ColumnNames(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("columns after drop = %v", got)
	}

	if err := ds.ReplaceColumn("b", numCol("b", 9, 8)); err != nil {
		t.Fatalf("ReplaceColumn: %v", err)
	}
	c, _ := ds.Column("b")
	if c.Kind != KindNumeric || c.Floats[0] != 9 {
		t.Fatalf("replacement not applied: %+v", c)
	}

	// Lookups must survive the index churn from drop+replace.
	if err := ds.AddColumn(numCol("a", 0, 0)); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if _, ok := ds.Column("a"); !ok {
		t.Fatalf("re-added column not found")
	}
}

func TestAddColumnLengthCheck(t *testing.T) {
	t.Parallel()

	ds, _ := New("t.csv", numCol("a", 1, 2, 3))
	if err := ds.AddColumn(numCol("b", 1)); err == nil {
		t.Fatalf("adding a short column should fail")
	}
}

//
// Head / CellString
//

func TestHeadRendersTypedCells(t *testing.T) {
	t.Parallel()

	a := numCol("n", 1, 2.5, 3)
	a.Null[2] = true
	ds, _ := New("t.csv", a, strCol("s", "x", "y", "z"))

	head := ds.Head(2)
	want := [][]string{{"1", "x"}, {"2.5", "y"}}
	if !reflect.DeepEqual(head, want) {
		t.Fatalf("Head(2) = %v, want %v", head, want)
	}

	// Null renders as empty string.
	if got := a.CellString(2); got != "" {
		t.Fatalf("null CellString = %q, want empty", got)
	}
}

func TestUniqueCount(t *testing.T) {
	t.Parallel()

	c := strCol("s", "a", "b", "a", "c")
	c.Null[3] = true
	if got := c.UniqueCount(); got != 2 {
		t.Fatalf("UniqueCount = %d, want 2", got)
	}
}
