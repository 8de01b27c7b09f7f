package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readDelimited parses delimiter-separated text into a header row and data
// rows. Input bytes that are not valid UTF-8 are re-decoded through
// common legacy single-byte charsets.
func readDelimited(data []byte, delimiter rune, maxRows int) ([]string, [][]string, error) {
	data, err := decodeCharset(data)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header row: %w", err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what parsed so far; a trailing bad record should not
			// discard the table.
			break
		}
		rows = append(rows, rec)
		if maxRows > 0 && len(rows) >= maxRows {
			break
		}
	}
	return headers, rows, nil
}

// decodeCharset returns data as UTF-8. Valid UTF-8 passes through; anything
// else is decoded as Windows-1252, falling back to ISO 8859-1.
func decodeCharset(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return out, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return out, nil
}
