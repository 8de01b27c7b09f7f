package export

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"datascope/internal/dataset"
)

// encodeParquet builds an arrow table straight from the typed columns, so a
// round trip through the parquet reader reproduces the same kinds.
func encodeParquet(ds *dataset.Dataset) ([]byte, error) {
	fields := make([]arrow.Field, ds.Cols())
	for i, c := range ds.Columns() {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.DefaultAllocator
	bld := array.NewRecordBuilder(pool, schema)
	defer bld.Release()

	for j, c := range ds.Columns() {
		if err := appendColumn(bld.Field(j), c); err != nil {
			return nil, fmt.Errorf("export: column %q: %w", c.Name, err)
		}
	}

	rec := bld.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, int64(ds.Rows())+1, nil, pqarrow.DefaultWriterProps()); err != nil {
		return nil, fmt.Errorf("export: write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

func arrowType(c *dataset.Column) arrow.DataType {
	switch c.Kind {
	case dataset.KindNumeric:
		if c.Integer {
			return arrow.PrimitiveTypes.Int64
		}
		return arrow.PrimitiveTypes.Float64
	case dataset.KindDatetime:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

func appendColumn(b array.Builder, c *dataset.Column) error {
	n := c.Len()
	switch fb := b.(type) {
	case *array.Int64Builder:
		for i := 0; i < n; i++ {
			if c.Null[i] {
				fb.AppendNull()
			} else {
				fb.Append(int64(c.Floats[i]))
			}
		}
	case *array.Float64Builder:
		for i := 0; i < n; i++ {
			if c.Null[i] {
				fb.AppendNull()
			} else {
				fb.Append(c.Floats[i])
			}
		}
	case *array.TimestampBuilder:
		for i := 0; i < n; i++ {
			if c.Null[i] {
				fb.AppendNull()
			} else {
				fb.Append(arrow.Timestamp(c.Times[i].UTC().UnixMicro()))
			}
		}
	case *array.StringBuilder:
		for i := 0; i < n; i++ {
			if c.Null[i] {
				fb.AppendNull()
			} else {
				fb.Append(c.Strings[i])
			}
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
