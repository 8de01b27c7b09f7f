package loader

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// readXLSX parses a modern Excel workbook. Only the first sheet is loaded.
func readXLSX(data []byte, maxRows int) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return splitHeader(rows, maxRows)
}

// readXLS parses a legacy BIFF workbook. Only the first sheet is loaded.
func readXLS(data []byte, maxRows int) ([]string, [][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	limit := maxRows
	if limit <= 0 {
		limit = 1 << 20
	}
	rows := wb.ReadAllCells(limit + 1) // +1 for the header row
	return splitHeader(rows, maxRows)
}

// splitHeader peels the first row off as headers.
func splitHeader(rows [][]string, maxRows int) ([]string, [][]string, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet is empty")
	}
	headers := rows[0]
	body := rows[1:]
	if maxRows > 0 && len(body) > maxRows {
		body = body[:maxRows]
	}
	return headers, body, nil
}
