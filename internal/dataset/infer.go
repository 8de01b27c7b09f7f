package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// InferOptions control how FromGrid classifies columns.
type InferOptions struct {
	// SampleRows bounds how many rows are inspected during type voting.
	// 0 means all rows. Materialization always covers the full grid.
	SampleRows int

	// TextUniqueRatio is the distinct/non-null ratio above which a string
	// column is demoted from categorical to free text. Default 0.8.
	TextUniqueRatio float64

	// TextMinUnique is the minimum distinct count required before the
	// ratio rule applies, so tiny tables keep their categoricals.
	// Default 100.
	TextMinUnique int
}

func (o InferOptions) withDefaults() InferOptions {
	if o.TextUniqueRatio <= 0 {
		o.TextUniqueRatio = 0.8
	}
	if o.TextMinUnique <= 0 {
		o.TextMinUnique = 100
	}
	return o
}

// FromGrid builds a typed Dataset from raw string cells.
//
// Per column the pipeline is:
//  1. Vote a coarse type over (sampled) values: integer, float, boolean,
//     date, timestamp, text. Empty cells are nulls and do not vote.
//  2. For date/timestamp columns, pick the majority layout.
//  3. Materialize the full column into its typed representation; cells
//     that fail the elected type fall back to null rather than failing
//     the load.
//  4. Classify leftover string columns as categorical or free text by
//     uniqueness.
//
// Headers are normalized to safe lowercase identifiers and de-duplicated
// with numeric suffixes. Short rows are padded with nulls; long rows are
// truncated, so a ragged grid still loads.
func FromGrid(source string, headers []string, rows [][]string, opts ...InferOptions) (*Dataset, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("dataset: no columns in input")
	}
	opt := InferOptions{}.withDefaults()
	if len(opts) > 0 {
		opt = opts[0].withDefaults()
	}

	names := NormalizeNames(headers)

	sample := rows
	if opt.SampleRows > 0 && len(sample) > opt.SampleRows {
		sample = sample[:opt.SampleRows]
	}

	cols := make([]*Column, len(headers))
	for i := range headers {
		inferred, layout := voteColumnType(sample, i)
		cols[i] = materializeColumn(names[i], inferred, layout, rows, i, opt)
	}

	return New(source, cols...)
}

// voteColumnType elects a coarse type for column col by requiring every
// non-empty sampled value to parse as that type. More specific types win.
func voteColumnType(rows [][]string, col int) (string, string) {
	var seen bool
	allInt := true
	allFloat := true
	allBool := true
	allDate := true
	allTS := true

	dateVotes := map[string]int{}
	tsVotes := map[string]int{}

	for _, r := range rows {
		if col >= len(r) {
			continue
		}
		v := strings.TrimSpace(r[col])
		if v == "" {
			continue
		}
		seen = true

		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := ParseBoolLoose(v); !ok {
				allBool = false
			}
		}
		isDate := false
		if _, lay, ok := ParseDateLoose(v); ok {
			isDate = true
			dateVotes[lay]++
		} else if allDate {
			allDate = false
		}
		// Both candidates run from the first value: a column mixing
		// date-only and timestamp cells elects timestamp, with the
		// date-only cells still counted as compatible.
		if allTS && !isDate {
			if _, lay, ok := ParseTimestampLoose(v); ok {
				tsVotes[lay]++
			} else {
				allTS = false
			}
		}
	}

	if !seen {
		return "text", ""
	}

	switch {
	case allInt:
		return "integer", ""
	case allBool:
		return "boolean", ""
	case allDate:
		return "date", majorityLayout(dateVotes)
	case allTS && len(tsVotes) > 0:
		return "timestamp", majorityLayout(tsVotes)
	case allFloat:
		return "float", ""
	default:
		return "text", ""
	}
}

func majorityLayout(votes map[string]int) string {
	best := ""
	bestN := 0
	for lay, n := range votes {
		if n > bestN {
			best = lay
			bestN = n
		}
	}
	return best
}

// materializeColumn converts raw cells of column col into a typed Column
// for the elected type. Unparseable cells become nulls.
func materializeColumn(name, inferred, layout string, rows [][]string, col int, opt InferOptions) *Column {
	n := len(rows)
	c := &Column{Name: name, Null: make([]bool, n)}

	cell := func(i int) (string, bool) {
		if col >= len(rows[i]) {
			return "", false
		}
		v := strings.TrimSpace(rows[i][col])
		return v, v != ""
	}

	switch inferred {
	case "integer", "float":
		c.Kind = KindNumeric
		c.Integer = inferred == "integer"
		c.Floats = make([]float64, n)
		for i := 0; i < n; i++ {
			v, ok := cell(i)
			if !ok {
				c.Null[i] = true
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.Null[i] = true
				continue
			}
			c.Floats[i] = f
		}

	case "boolean":
		c.Kind = KindCategorical
		c.Strings = make([]string, n)
		for i := 0; i < n; i++ {
			v, ok := cell(i)
			if !ok {
				c.Null[i] = true
				continue
			}
			b, ok := ParseBoolLoose(v)
			if !ok {
				c.Null[i] = true
				continue
			}
			c.Strings[i] = strconv.FormatBool(b)
		}

	case "date", "timestamp":
		c.Kind = KindDatetime
		c.Layout = layout
		c.Times = make([]time.Time, n)
		parse := ParseDateLoose
		if inferred == "timestamp" {
			parse = ParseTimestampLoose
		}
		for i := 0; i < n; i++ {
			v, ok := cell(i)
			if !ok {
				c.Null[i] = true
				continue
			}
			if layout != "" {
				if t, err := time.Parse(layout, v); err == nil {
					c.Times[i] = t
					continue
				}
			}
			t, _, ok := parse(v)
			if !ok && inferred == "timestamp" {
				// Date-only cells in a timestamp column land at midnight.
				t, _, ok = ParseDateLoose(v)
			}
			if !ok {
				c.Null[i] = true
				continue
			}
			c.Times[i] = t
		}

	default:
		c.Kind = KindCategorical
		c.Strings = make([]string, n)
		for i := 0; i < n; i++ {
			v, ok := cell(i)
			if !ok {
				c.Null[i] = true
				continue
			}
			c.Strings[i] = v
		}
		demoteTextIfFreeForm(c, opt)
	}

	return c
}

// demoteTextIfFreeForm reclassifies a categorical column as free text when
// nearly every value is distinct.
func demoteTextIfFreeForm(c *Column, opt InferOptions) {
	nonNull := c.NonNull()
	if nonNull == 0 {
		return
	}
	unique := c.UniqueCount()
	if unique >= opt.TextMinUnique && float64(unique)/float64(nonNull) > opt.TextUniqueRatio {
		c.Kind = KindText
	}
}

// ParseBoolLoose accepts common truthy/falsy encodings, case-insensitively.
func ParseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// ParseDateLoose tries the supported date layouts and reports which matched.
func ParseDateLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}

// ParseTimestampLoose tries the supported timestamp layouts and reports
// which matched.
func ParseTimestampLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}

// NormalizeNames converts raw headers to safe identifiers and de-duplicates
// them with numeric suffixes. Empty headers become col_<n>.
func NormalizeNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		n := truncateName(NormalizeName(h))
		if n == "" {
			n = fmt.Sprintf("col_%d", i+1)
		}
		if _, dup := seen[n]; dup {
			base := n
			for k := 2; ; k++ {
				n = fmt.Sprintf("%s_%d", base, k)
				if _, taken := seen[n]; !taken {
					break
				}
			}
		}
		seen[n] = 1
		out[i] = n
	}
	return out
}

// NormalizeName converts an arbitrary input string into a safe, lowercase
// identifier suitable for column and table names.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';' {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			lastUnderscore = r == '_'
			continue
		}
		// drop everything else
	}

	n := strings.Trim(b.String(), "_")
	if n == "" {
		return ""
	}
	if n[0] >= '0' && n[0] <= '9' {
		n = "c_" + n
	}
	return n
}

func truncateName(s string) string {
	const maxLen = 63
	if len(s) <= maxLen {
		return s
	}
	b := []byte(s)
	cut := maxLen
	for cut > 0 && !utf8.Valid(b[:cut]) {
		cut--
	}
	if cut <= 0 {
		return s[:maxLen]
	}
	return string(b[:cut])
}
