package form

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

// DateLayout is the canonical layout of cleaned date values when rendered.
const DateLayout = "2006-01-02"

// ErrRequired is returned by Clean when a required field is blank.
var ErrRequired = errors.New("this field is required")

// Base carries the label and required flag shared by all field types.
type Base struct {
	Text     string
	Required bool
}

// Label implements Field.
func (b Base) Label() string { return b.Text }

// blank returns the first submitted value and whether it was blank, or
// ErrRequired for a blank required field.
func (b Base) blank(raw []string) (string, bool, error) {
	var v string
	if len(raw) > 0 {
		v = strings.TrimSpace(raw[0])
	}

	if v != "" {
		return v, false, nil
	}

	if b.Required {
		return "", true, ErrRequired
	}

	return "", true, nil
}

// Char is a free-text field.
type Char struct {
	Base
	MaxLength int
}

// Clean implements Field.
func (c Char) Clean(raw []string) (any, error) {
	v, blank, err := c.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	if c.MaxLength > 0 && utf8.RuneCountInString(v) > c.MaxLength {
		return nil, fmt.Errorf("ensure this value has at most %d characters (it has %d)", c.MaxLength, utf8.RuneCountInString(v))
	}

	return v, nil
}

// Integer accepts whole numbers.
type Integer struct {
	Base
}

// Clean implements Field.
func (i Integer) Clean(raw []string) (any, error) {
	v, blank, err := i.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, fmt.Errorf("enter a whole number")
	}

	return n, nil
}

// Float accepts decimal numbers.
type Float struct {
	Base
}

// Clean implements Field.
func (f Float) Clean(raw []string) (any, error) {
	v, blank, err := f.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	n, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("enter a number")
	}

	return n, nil
}

// Boolean accepts the usual textual truth values, including the "on" sent
// by HTML checkboxes. A blank boolean is nil, not false, so that an
// unchecked filter does not constrain the result.
type Boolean struct {
	Base
}

// Clean implements Field.
func (b Boolean) Clean(raw []string) (any, error) {
	v, blank, err := b.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	switch strings.ToLower(v) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}

	t, err := cast.ToBoolE(v)
	if err != nil {
		return nil, fmt.Errorf("enter a valid boolean")
	}

	return t, nil
}

// Date accepts calendar dates. Values clean to midnight UTC.
type Date struct {
	Base
}

// Clean implements Field.
func (d Date) Clean(raw []string) (any, error) {
	v, blank, err := d.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}

	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("enter a valid date")
	}

	y, m, day := t.Date()

	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}

// DateTime accepts dates with an optional time of day in any layout
// understood by dateparse.
type DateTime struct {
	Base
}

// Clean implements Field.
func (d DateTime) Clean(raw []string) (any, error) {
	v, blank, err := d.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("enter a valid date/time")
	}

	return t, nil
}

// Choice restricts input to a fixed set of values. The cleaned value is the
// choice's Value.
type Choice struct {
	Base
	Choices []Option
}

// Option is one selectable value of a Choice field.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Clean implements Field.
func (c Choice) Clean(raw []string) (any, error) {
	v, blank, err := c.blank(raw)
	if err != nil || blank {
		return nil, err
	}

	for _, opt := range c.Choices {
		if cast.ToString(opt.Value) == v {
			return opt.Value, nil
		}
	}

	return nil, fmt.Errorf("select a valid choice; %q is not one of the available choices", v)
}
