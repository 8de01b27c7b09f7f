// Package report renders the downloadable Markdown EDA report.
package report

import (
	"fmt"
	"strings"

	"datascope/internal/dataset"
	"datascope/internal/describe"
	"datascope/internal/quality"
)

// Markdown renders the EDA report for the current table: shape, column
// information, numeric summary, and missing values.
func Markdown(ds *dataset.Dataset) []byte {
	var b strings.Builder
	sum := describe.Describe(ds)

	b.WriteString("# Exploratory Data Analysis Report\n\n")
	fmt.Fprintf(&b, "**Dataset:** %s\n\n", ds.Source)
	fmt.Fprintf(&b, "**Shape:** %d rows x %d columns\n\n", ds.Rows(), ds.Cols())

	b.WriteString("## Column Information\n\n")
	b.WriteString("| Column | Type | Non-null | Missing % | Unique |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, c := range sum.Columns {
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f%% | %d |\n",
			c.Name, c.Kind, c.Count, c.MissingPct, c.Unique)
	}
	b.WriteString("\n")

	var numeric []describe.ColumnSummary
	for _, c := range sum.Columns {
		if c.Numeric != nil {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) > 0 {
		b.WriteString("## Numeric Summary\n\n")
		b.WriteString("| Column | Mean | Std | Min | Median | Max | Skewness |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, c := range numeric {
			n := c.Numeric
			fmt.Fprintf(&b, "| %s | %.4g | %.4g | %.4g | %.4g | %.4g | %.3f |\n",
				c.Name, n.Mean, n.Std, n.Min, n.Median, n.Max, n.Skewness)
		}
		b.WriteString("\n")
	}

	q := quality.Assess(ds)
	b.WriteString("## Missing Values\n\n")
	if len(q.Missing) == 0 {
		b.WriteString("No missing values found.\n")
	} else {
		for _, m := range q.Missing {
			fmt.Fprintf(&b, "- %s: %d missing (%.2f%%)\n", m.Column, m.Count, m.MissingPct)
		}
	}
	if q.DuplicateRows > 0 {
		fmt.Fprintf(&b, "\n%d duplicate rows detected.\n", q.DuplicateRows)
	}

	return []byte(b.String())
}
