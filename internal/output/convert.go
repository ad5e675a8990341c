package output

import (
	"strconv"
	"time"

	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/report"
)

// Converter renders one cell value as text.
type Converter func(v any) string

// ConverterFor returns the text conversion of a column datatype.
func ConverterFor(dt report.DataType) Converter {
	switch dt {
	case report.TypeNumber:
		return formatNumber
	case report.TypeBoolean:
		return formatBoolean
	case report.TypeDate:
		return timeFormatter(time.DateOnly)
	case report.TypeDateTime:
		return timeFormatter(time.DateTime)
	case report.TypeTimeOfDay:
		return timeFormatter(time.TimeOnly)
	default:
		return formatString
	}
}

// Converters returns one converter per column.
func Converters(cols []report.Column) []Converter {
	out := make([]Converter, len(cols))
	for i, c := range cols {
		out[i] = ConverterFor(c.Type)
	}

	return out
}

// convertRow renders row with conv. Missing trailing cells render empty.
func convertRow(row report.Row, conv []Converter) []string {
	cells := make([]string, len(conv))

	for i, c := range conv {
		if i < len(row) {
			cells[i] = c(row[i])
		}
	}

	return cells
}

func formatString(v any) string {
	if v == nil {
		return ""
	}

	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}

	return cast.ToString(v)
}

func formatNumber(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		if f, err := cast.ToFloat64E(v); err == nil {
			if i, err := cast.ToInt64E(v); err == nil && float64(i) == f {
				return strconv.FormatInt(i, 10)
			}

			return strconv.FormatFloat(f, 'f', -1, 64)
		}

		return cast.ToString(v)
	}
}

func formatBoolean(v any) string {
	if v == nil {
		return ""
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return cast.ToString(v)
	}

	if b {
		return "yes"
	}

	return "no"
}

func timeFormatter(layout string) Converter {
	return func(v any) string {
		if v == nil {
			return ""
		}

		t, err := cast.ToTimeE(v)
		if err != nil {
			return cast.ToString(v)
		}

		return t.Format(layout)
	}
}
