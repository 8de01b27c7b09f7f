package loader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"datascope/internal/dataset"
)

//
// Load dispatch
//

// TestLoadCSV verifies the happy path: header normalization, shape and
// inferred kinds.
func TestLoadCSV(t *testing.T) {
	t.Parallel()

	data := []byte("Name,Age,Score\nalice,30,1.5\nbob,25,2.5\ncarol,41,3.5\n")
	ds, err := Load("people.csv", data, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows() != 3 || ds.Cols() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", ds.Rows(), ds.Cols())
	}

	age, ok := ds.Column("age")
	if !ok {
		t.Fatalf("column age missing; have %v", ds.ColumnNames())
	}
	if age.Kind != dataset.KindNumeric || !age.Integer {
		t.Fatalf("age kind = %v integer=%v, want integer numeric", age.Kind, age.Integer)
	}
	score, _ := ds.Column("score")
	if score.Kind != dataset.KindNumeric || score.Integer {
		t.Fatalf("score should be float numeric")
	}
}

// TestLoadDelimiterSniffing verifies .txt delimiter detection for tab,
// semicolon and pipe separated files.
func TestLoadDelimiterSniffing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"tab", "a\tb\n1\t2\n"},
		{"semicolon", "a;b\n1;2\n"},
		{"pipe", "a|b\n1|2\n"},
		{"comma fallback", "a,b\n1,2\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ds, err := Load("data.txt", []byte(tt.data), Options{})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if ds.Cols() != 2 || ds.Rows() != 1 {
				t.Fatalf("shape = %dx%d, want 1x2", ds.Rows(), ds.Cols())
			}
		})
	}
}

// TestLoadCSVWithBOM verifies the UTF-8 BOM does not leak into the first
// header name.
func TestLoadCSVWithBOM(t *testing.T) {
	t.Parallel()

	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,v\n1,2\n")...)
	ds, err := Load("bom.csv", data, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := ds.Column("id"); !ok {
		t.Fatalf("BOM corrupted first header; have %v", ds.ColumnNames())
	}
}

// TestLoadJSON covers both accepted JSON shapes.
func TestLoadJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		wantRows int
		wantCols []string
	}{
		{
			"array of objects",
			`[{"b": 1, "a": "x"}, {"b": 2, "a": "y"}]`,
			2,
			[]string{"a", "b"},
		},
		{
			"object of arrays",
			`{"b": [1, 2, 3], "a": ["x", "y", "z"]}`,
			3,
			[]string{"a", "b"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ds, err := Load("data.json", []byte(tt.data), Options{})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if ds.Rows() != tt.wantRows {
				t.Fatalf("rows = %d, want %d", ds.Rows(), tt.wantRows)
			}
			got := ds.ColumnNames()
			for i, want := range tt.wantCols {
				if got[i] != want {
					t.Fatalf("columns = %v, want %v", got, tt.wantCols)
				}
			}
		})
	}
}

// TestLoadJSONMalformed verifies malformed JSON becomes a ParseError, not a
// panic or generic failure.
func TestLoadJSONMalformed(t *testing.T) {
	t.Parallel()

	_, err := Load("bad.json", []byte(`[{"a": 1},`), Options{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Format != "json" {
		t.Fatalf("format = %q, want json", pe.Format)
	}
}

// TestLoadHTMLTable verifies the first <table> is extracted.
func TestLoadHTMLTable(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<table>
			<tr><th>city</th><th>pop</th></tr>
			<tr><td>oslo</td><td>700000</td></tr>
			<tr><td>bergen</td><td>290000</td></tr>
		</table>
	</body></html>`
	ds, err := Load("page.html", []byte(html), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", ds.Rows())
	}
	pop, ok := ds.Column("pop")
	if !ok || pop.Kind != dataset.KindNumeric {
		t.Fatalf("pop should be a numeric column")
	}
}

// TestLoadXLSX round-trips a workbook built with excelize.
func TestLoadXLSX(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"item", "qty"},
		{"bolt", 10},
		{"nut", 20},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	ds, err := Load("stock.xlsx", buf.Bytes(), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows() != 2 || ds.Cols() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", ds.Rows(), ds.Cols())
	}
	qty, _ := ds.Column("qty")
	if qty.Kind != dataset.KindNumeric {
		t.Fatalf("qty should be numeric")
	}
}

// TestSnapshotRoundTrip verifies gob export and reload reproduce shape and
// kinds.
func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	orig, err := Load("src.csv", []byte("a,b\n1,x\n2,y\n"), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	blob, err := EncodeSnapshot(orig)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	back, err := Load("src.gob", blob, Options{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Rows() != 2 || back.Cols() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", back.Rows(), back.Cols())
	}
	a, _ := back.Column("a")
	if a.Kind != dataset.KindNumeric || !a.Integer {
		t.Fatalf("column a lost its integer kind")
	}
}

// TestLoadUnsupported verifies the sentinel error and the dedicated SQLite
// guidance.
func TestLoadUnsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
	}{
		{"unknown extension", "data.xyz"},
		{"sqlite database", "data.sqlite"},
		{"no extension", "README"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.file, []byte("x"), Options{})
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

// TestLoadMaxRows verifies the row cap applies during parsing.
func TestLoadMaxRows(t *testing.T) {
	t.Parallel()

	data := []byte("v\n1\n2\n3\n4\n5\n")
	ds, err := Load("v.csv", data, Options{MaxRows: 3})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", ds.Rows())
	}
}
