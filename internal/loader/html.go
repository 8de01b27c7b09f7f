package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readHTMLTable extracts the first <table> from an HTML document. Header
// cells come from the first row (th preferred, td accepted).
func readHTMLTable(data []byte, maxRows int) ([]string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("document contains no <table>")
	}

	var headers []string
	var rows [][]string

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if headers == nil {
			headers = cells
			return
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return
		}
		rows = append(rows, cells)
	})

	if headers == nil {
		return nil, nil, fmt.Errorf("table has no rows")
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("table has a header but no data rows")
	}
	return headers, rows, nil
}
