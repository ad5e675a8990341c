package report

import "fmt"

// DataType is the declared type of a report column. The set mirrors the
// Google Visualization data table types so schemas can be handed to chart
// libraries unchanged.
type DataType string

// Supported column data types. The zero value means "unspecified".
const (
	TypeString    DataType = "string"
	TypeNumber    DataType = "number"
	TypeBoolean   DataType = "boolean"
	TypeDate      DataType = "date"
	TypeDateTime  DataType = "datetime"
	TypeTimeOfDay DataType = "timeofday"
)

// Valid reports whether t is empty or one of the supported types.
func (t DataType) Valid() bool {
	switch t {
	case "", TypeString, TypeNumber, TypeBoolean, TypeDate, TypeDateTime, TypeTimeOfDay:
		return true
	default:
		return false
	}
}

// ParseDataType validates s as a DataType.
func ParseDataType(s string) (DataType, error) {
	t := DataType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid column type %q: must be one of string, number, boolean, date, datetime, timeofday", s)
	}

	return t, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so decoded definitions
// reject unknown types.
func (t *DataType) UnmarshalText(b []byte) error {
	parsed, err := ParseDataType(string(b))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// Column describes one column of a report schema. Only ID is mandatory.
type Column struct {
	ID      string         `json:"id" yaml:"id"`
	Type    DataType       `json:"type,omitempty" yaml:"type,omitempty"`
	Label   string         `json:"label,omitempty" yaml:"label,omitempty"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// DisplayLabel returns Label, falling back to ID.
func (c Column) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}

	return c.ID
}

func copyColumns(src []Column) []Column {
	if src == nil {
		return nil
	}

	dst := make([]Column, len(src))
	for i, c := range src {
		dst[i] = c
		if c.Options != nil {
			dst[i].Options = make(map[string]any, len(c.Options))
			for k, v := range c.Options {
				dst[i].Options[k] = v
			}
		}
	}

	return dst
}
