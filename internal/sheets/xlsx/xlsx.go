// Package xlsx serializes assembled reports to Office Open XML workbooks.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"spendwise/internal/report"
)

// ContentType is the MIME type of an .xlsx download.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

var ErrNoSheets = errors.New("report has no sheets")

// Encode writes one worksheet per report sheet, in order. Rows and cells keep
// their positions; nil cells and empty rows stay blank.
func Encode(r report.Report) ([]byte, error) {
	if len(r.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range r.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}
		for j, row := range sheet.Rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, j+1)
			if err != nil {
				return nil, err
			}
			values := append([]any(nil), row...)
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return nil, fmt.Errorf("write %s row %d: %w", sheet.Name, j+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a workbook back into a report. Cells come back as their raw
// text; trailing empty cells of a row are dropped.
func Decode(b []byte) (report.Report, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return report.Report{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var r report.Report
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return report.Report{}, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheet := report.Sheet{Name: name, Rows: make([][]any, 0, len(rows))}
		for _, row := range rows {
			end := len(row)
			for end > 0 && row[end-1] == "" {
				end--
			}
			cells := make([]any, end)
			for i := 0; i < end; i++ {
				cells[i] = row[i]
			}
			sheet.Rows = append(sheet.Rows, cells)
		}
		r.Sheets = append(r.Sheets, sheet)
	}
	return r, nil
}
