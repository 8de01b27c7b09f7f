package postgres

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
	want := `CREATE TABLE IF NOT EXISTS "results" ("id" BIGINT, "score" DOUBLE PRECISION, "seen" TIMESTAMPTZ, "label" TEXT);`
	if got != want {
		t.Fatalf("sql mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestBuildCreateSQLErrors(t *testing.T) {
	t.Parallel()

	if _, err := buildCreateSQL("  ", []publish.ColumnSpec{{Name: "x"}}); err == nil {
		t.Fatal("blank table accepted")
	}
	if _, err := buildCreateSQL("t", nil); err == nil {
		t.Fatal("zero columns accepted")
	}
}

func TestPgIdentEscapesQuotes(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("ident = %s", got)
	}
}

func TestPgTypeText(t *testing.T) {
	t.Parallel()

	if got := pgType(publish.ColumnSpec{Kind: dataset.KindText}); got != "TEXT" {
		t.Fatalf("text type = %s", got)
	}
}
