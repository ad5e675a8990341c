package output

import (
	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/report"
)

// cellValue keeps numbers and booleans typed in spreadsheet cells and falls
// back to the converted text otherwise.
func cellValue(dt report.DataType, row report.Row, i int, text string) any {
	if i >= len(row) || row[i] == nil {
		return nil
	}

	switch dt {
	case report.TypeNumber:
		if f, err := cast.ToFloat64E(row[i]); err == nil {
			return f
		}
	case report.TypeBoolean:
		if b, err := cast.ToBoolE(row[i]); err == nil {
			return b
		}
	}

	return text
}
