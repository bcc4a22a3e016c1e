package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads the "Products" sheet (falling back to the first
// sheet) into rows keyed by normalized header. Headers are lower-cased
// and stripped of spaces and the "*" required marker so the generated
// template and hand-written files parse the same way. Fully empty rows
// are skipped.
// normalizeHeader lower-cases a header cell, drops the "*" required
// marker and strips every space, so "Product Name *", "product name"
// and "productName" all resolve to the same column key.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, "*")
	return strings.ReplaceAll(h, " ", "")
}

func ParseWorkbook(file io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	var rows []Row
	for rowIdx, excelRow := range excelRows[1:] {
		fields := make(map[string]string)
		empty := true
		for i, value := range excelRow {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				empty = false
			}
			fields[headers[i]] = value
		}
		if empty {
			continue
		}
		// +2: 1-indexed sheet rows plus the header row.
		rows = append(rows, Row{Index: rowIdx + 2, Fields: fields})
	}
	return rows, nil
}
