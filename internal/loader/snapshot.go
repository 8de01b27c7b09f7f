package loader

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"datascope/internal/dataset"
)

// Snapshot is the generic serialized-object wire form of a table: the raw
// string grid plus its source name. Export writes it with encoding/gob and
// loading re-runs type inference, so a snapshot round-trips through the
// same pipeline as any other upload.
type Snapshot struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// EncodeSnapshot serializes the current table as a gob snapshot.
func EncodeSnapshot(ds *dataset.Dataset) ([]byte, error) {
	snap := Snapshot{
		Source:  ds.Source,
		Headers: ds.ColumnNames(),
		Rows:    ds.Head(ds.Rows()),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func loadSnapshot(name string, data []byte, opt Options) (*dataset.Dataset, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, &ParseError{Format: "gob", Err: err}
	}
	rows := snap.Rows
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}
	ds, err := dataset.FromGrid(name, snap.Headers, rows, opt.Infer)
	if err != nil {
		return nil, &ParseError{Format: "gob", Err: err}
	}
	return ds, nil
}
