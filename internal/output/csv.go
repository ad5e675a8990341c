package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

type csvFormat struct{ base }

// CSV returns the comma-separated export: a header of column labels and
// one record per row. Charts are never embedded.
func CSV() Format {
	return csvFormat{base{name: "csv", extension: "csv", contentType: "text/csv"}}
}

func (csvFormat) Render(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.DisplayLabel()
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	conv := Converters(t.Columns)
	for i, row := range t.Rows {
		if err := cw.Write(convertRow(row, conv)); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
