package loader

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// readJSON parses either an array of objects or an object of equal-length
// arrays into a string grid. Numbers keep their literal form (UseNumber) so
// integer columns survive the round trip.
func readJSON(data []byte, maxRows int) ([]string, [][]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	switch trimmed[0] {
	case '[':
		return readJSONRecords(trimmed, maxRows)
	case '{':
		return readJSONColumns(trimmed, maxRows)
	default:
		return nil, nil, fmt.Errorf("expected a JSON array of objects or object of arrays")
	}
}

func readJSONRecords(data []byte, maxRows int) ([]string, [][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("decode records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("JSON array has no records")
	}
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}

	// Column order is the sorted union of keys; object key order is not
	// preserved by the decoder.
	keySet := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			keySet[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(keySet))
	for k := range keySet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(headers))
		for j, k := range headers {
			row[j] = jsonScalar(rec[k])
		}
		rows[i] = row
	}
	return headers, rows, nil
}

func readJSONColumns(data []byte, maxRows int) ([]string, [][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var cols map[string][]any
	if err := dec.Decode(&cols); err != nil {
		return nil, nil, fmt.Errorf("decode columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("JSON object has no columns")
	}

	headers := make([]string, 0, len(cols))
	for k := range cols {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	n := 0
	for _, vs := range cols {
		if len(vs) > n {
			n = len(vs)
		}
	}
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(headers))
		for j, k := range headers {
			if vs := cols[k]; i < len(vs) {
				row[j] = jsonScalar(vs[i])
			}
		}
		rows[i] = row
	}
	return headers, rows, nil
}

// jsonScalar renders a decoded JSON value as a cell. Nested structures are
// re-encoded as compact JSON text.
func jsonScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
