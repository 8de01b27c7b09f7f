// Package loader turns uploaded file bytes into a dataset.Dataset.
//
// The loader is responsible for:
//   - Detecting the format from the file extension
//   - Parsing delimited text (CSV/TSV/TXT with delimiter sniffing and
//     character-set fallback), Excel (xlsx and legacy xls), JSON, Parquet,
//     HTML tables, and gob snapshots
//   - Reporting unsupported or unparseable input as typed user errors
//
// All parsers are best-effort at the row level: ragged rows are padded or
// truncated by dataset.FromGrid rather than failing the whole load.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"datascope/internal/dataset"
)

// SupportedFormats lists the accepted upload extensions, for user guidance.
var SupportedFormats = []string{
	".csv", ".tsv", ".txt", ".xlsx", ".xls", ".json", ".parquet", ".html", ".gob",
}

// ErrUnsupportedFormat marks an extension the loader does not handle.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError wraps a format-specific parse failure. It unwraps to the
// underlying parser error.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options bound loader behavior.
type Options struct {
	// MaxRows caps how many data rows are materialized. 0 means no cap.
	MaxRows int

	// Infer is passed through to dataset.FromGrid.
	Infer dataset.InferOptions
}

// Load parses data according to the extension of name and builds a Dataset.
//
// Errors:
//   - ErrUnsupportedFormat (wrapped) when the extension is not recognized.
//     SQLite files get a dedicated message pointing at CSV export instead.
//   - *ParseError when the bytes do not parse as the detected format.
func Load(name string, data []byte, opt Options) (*dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		headers []string
		rows    [][]string
		err     error
	)

	switch ext {
	case ".csv":
		headers, rows, err = readDelimited(data, ',', opt.MaxRows)
	case ".tsv":
		headers, rows, err = readDelimited(data, '\t', opt.MaxRows)
	case ".txt":
		headers, rows, err = readDelimited(data, sniffDelimiter(data), opt.MaxRows)
	case ".xlsx":
		headers, rows, err = readXLSX(data, opt.MaxRows)
	case ".xls":
		headers, rows, err = readXLS(data, opt.MaxRows)
	case ".json":
		headers, rows, err = readJSON(data, opt.MaxRows)
	case ".parquet":
		headers, rows, err = readParquet(data, opt.MaxRows)
	case ".html", ".htm":
		headers, rows, err = readHTMLTable(data, opt.MaxRows)
	case ".gob":
		return loadSnapshot(name, data, opt)
	case ".db", ".sqlite":
		return nil, fmt.Errorf("%w: SQLite databases are not loaded directly; export the table to CSV first", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w %q: supported formats are %s",
			ErrUnsupportedFormat, ext, strings.Join(SupportedFormats, ", "))
	}
	if err != nil {
		return nil, &ParseError{Format: strings.TrimPrefix(ext, "."), Err: err}
	}

	ds, err := dataset.FromGrid(name, headers, rows, opt.Infer)
	if err != nil {
		return nil, &ParseError{Format: strings.TrimPrefix(ext, "."), Err: err}
	}
	return ds, nil
}

// sniffDelimiter inspects the head of a plain-text file and picks the most
// plausible delimiter: tab, then semicolon, then pipe, then comma.
func sniffDelimiter(data []byte) rune {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	sample := string(data[:n])
	switch {
	case strings.ContainsRune(sample, '\t'):
		return '\t'
	case strings.ContainsRune(sample, ';'):
		return ';'
	case strings.ContainsRune(sample, '|'):
		return '|'
	default:
		return ','
	}
}
