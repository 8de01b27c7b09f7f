// Package export serializes the current (possibly transformed) table for
// download in the same family of formats the loader accepts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"datascope/internal/dataset"
	"datascope/internal/loader"
)

// Format is a supported download format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
	FormatGob     Format = "gob"
)

// ContentType returns the MIME type served with the download.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// Encode serializes the dataset in the requested format.
func Encode(ds *dataset.Dataset, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return encodeDelimited(ds, ',')
	case FormatTSV:
		return encodeDelimited(ds, '\t')
	case FormatJSON:
		return encodeJSON(ds)
	case FormatXLSX:
		return encodeXLSX(ds)
	case FormatParquet:
		return encodeParquet(ds)
	case FormatGob:
		return loader.EncodeSnapshot(ds)
	default:
		return nil, fmt.Errorf("export: unknown format %q", f)
	}
}

func encodeDelimited(ds *dataset.Dataset, comma rune) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma

	if err := w.Write(ds.ColumnNames()); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}
	cols := ds.Columns()
	row := make([]string, len(cols))
	for i := 0; i < ds.Rows(); i++ {
		for j, c := range cols {
			row[j] = c.CellString(i)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeJSON writes an array of objects with typed values; nulls stay null
// so a reload infers the same kinds.
func encodeJSON(ds *dataset.Dataset) ([]byte, error) {
	cols := ds.Columns()
	records := make([]map[string]any, ds.Rows())
	for i := range records {
		rec := make(map[string]any, len(cols))
		for _, c := range cols {
			rec[c.Name] = cellValue(c, i)
		}
		records[i] = rec
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal json: %w", err)
	}
	return b, nil
}

func cellValue(c *dataset.Column, i int) any {
	if c.Null[i] {
		return nil
	}
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return int64(c.Floats[i])
		}
		return c.Floats[i]
	case dataset.KindDatetime:
		return c.CellString(i)
	default:
		return c.Strings[i]
	}
}

func encodeXLSX(ds *dataset.Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := make([]any, ds.Cols())
	for i, name := range ds.ColumnNames() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}

	cols := ds.Columns()
	for i := 0; i < ds.Rows(); i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("export: write row %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
