package tabular

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"sqxedit/internal/faults"
)

// SheetName is the worksheet written by WriteXLSX and preferred by ReadXLSX.
const SheetName = "Sample list"

// WriteXLSX writes sheet as a single-worksheet workbook.
func WriteXLSX(w io.Writer, sheet Sheet) error {
	file := xlsx.NewFile()
	ws, err := file.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add worksheet: %w", err)
	}
	writeRow(ws.AddRow(), sheet.Header)
	for _, values := range sheet.Rows {
		writeRow(ws.AddRow(), values)
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(row *xlsx.Row, values []string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// ReadXLSX reads the sample-list worksheet, or the first worksheet when none
// carries that name.
func ReadXLSX(data []byte) (Sheet, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return Sheet{}, faults.Wrap(faults.ErrInvalidEdit, "tabular", "read xlsx", "not a workbook", err)
	}
	ws, ok := file.Sheet[SheetName]
	if !ok {
		if len(file.Sheets) == 0 {
			return Sheet{}, faults.Wrap(faults.ErrInvalidEdit, "tabular", "read xlsx", "workbook has no worksheets", nil)
		}
		ws = file.Sheets[0]
	}

	var sheet Sheet
	for i, row := range ws.Rows {
		if row == nil {
			continue
		}
		values := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell != nil {
				values[j] = cell.Value
			}
		}
		if i == 0 || sheet.Header == nil {
			sheet.Header = values
			continue
		}
		sheet.Rows = append(sheet.Rows, values)
	}
	if sheet.Header == nil {
		return Sheet{}, faults.Wrap(faults.ErrInvalidEdit, "tabular", "read xlsx", "worksheet is empty", nil)
	}
	return sheet, nil
}
