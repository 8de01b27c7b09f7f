package loader

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// readParquet reads a Parquet file through the Arrow bridge and renders it
// back to a string grid, so the regular inference pipeline decides column
// kinds. Datasets small enough to upload are small enough to hold as one
// Arrow table.
func readParquet(data []byte, maxRows int) ([]string, [][]string, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()

	rdr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("arrow reader: %w", err)
	}
	tbl, err := rdr.ReadTable(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("read table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	headers := make([]string, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		headers[i] = schema.Field(i).Name
	}

	n := int(tbl.NumRows())
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(headers))
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len() && row < n; i, row = i+1, row+1 {
				rows[row][c] = arrowCell(chunk, i)
			}
			if row >= n {
				break
			}
		}
	}
	return headers, rows, nil
}

// arrowCell renders one Arrow array element as a cell string. Nulls become
// empty cells; temporal types use layouts the inference pass recognizes.
func arrowCell(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'g', -1, 32)
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(a.Value(i)), 10)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i))
	case *array.Timestamp:
		typ := a.DataType().(*arrow.TimestampType)
		return a.Value(i).ToTime(typ.Unit).UTC().Format("2006-01-02 15:04:05")
	case *array.Date32:
		return a.Value(i).ToTime().UTC().Format("2006-01-02")
	case *array.Date64:
		return a.Value(i).ToTime().UTC().Format("2006-01-02")
	default:
		return arr.ValueStr(i)
	}
}
