// Package fetcher reads the external documents the reconciliation
// pipeline consumes: manual-reconciliation spreadsheets and invoice or
// contract PDFs.
package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet is one worksheet split into its header row and data rows, the
// shape the ground-truth formatter consumes. Cells are the spreadsheet
// library's string rendering; numeric coercion happens downstream.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ReadSheet loads the named worksheet from an XLSX workbook. Manual
// reconciliation workbooks keep one tab per invoice, so the sheet name
// selects which invoice's ground truth to load.
func ReadSheet(path, sheetName string) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found in %s", sheetName, path)
	}

	s := &Sheet{Name: sheetName}
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			s.Header = cells
			continue
		}
		s.Rows = append(s.Rows, cells)
	}
	return s, nil
}

// SheetNames lists the worksheet tabs of a workbook in file order.
func SheetNames(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	names := make([]string, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		names = append(names, sheet.Name)
	}
	return names, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
