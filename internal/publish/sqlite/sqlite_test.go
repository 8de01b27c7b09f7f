package sqlite

import (
	"testing"

	"datascope/internal/dataset"
	"datascope/internal/publish"
)

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	cols := []publish.ColumnSpec{
		{Name: "id", Kind: dataset.KindNumeric, Integer: true},
		{Name: "score", Kind: dataset.KindNumeric},
		{Name: "seen", Kind: dataset.KindDatetime},
		{Name: "label", Kind: dataset.KindCategorical},
	}
	got, err := buildCreateSQL("results", cols)
	if err != nil {
		t.Fatalf("buildCreateSQL: %v", err)
	}
	// Datetimes are stored as RFC 3339 text.
	want := `CREATE TABLE IF NOT EXISTS "results" ("id" INTEGER, "score" REAL, "seen" TEXT, "label" TEXT);`
	if got != want {
		t.Fatalf("sql mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestBuildCreateSQLErrors(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateSQL("", []publish.ColumnSpec{{Name: "x"}}); err == nil {
		t.Fatal("blank table accepted")
	}
	if _, err := buildCreateSQL("t", nil); err == nil {
		t.Fatal("zero columns accepted")
	}
}

func TestSQLIdent(t *testing.T) {
	t.Parallel()

	if got := sqlIdent(`a"b`); got != `"a""b"` {
		t.Fatalf("ident = %s", got)
	}
}
