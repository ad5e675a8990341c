//go:build xlsx

package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxFormat struct{ base }

// XLSX returns the spreadsheet export. It is only available in binaries
// built with the xlsx tag.
func XLSX() (Format, bool) {
	return xlsxFormat{base{
		name:        "xlsx",
		extension:   "xlsx",
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}}, true
}

func (xlsxFormat) Render(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.DisplayLabel()
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	conv := Converters(t.Columns)

	for r, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for i, text := range convertRow(row, conv) {
			cells[i] = cellValue(t.Columns[i].Type, row, i, text)
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("writing xlsx row %d: %w", r, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}

	return nil
}
