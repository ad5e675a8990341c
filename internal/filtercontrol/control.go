// Package filtercontrol maps filter declarations onto form fields. Each
// control contributes one or more named fields whose names are already the
// filter keys the data source understands (for example "created__gte"), so a
// cleaned form translates directly into a filter mapping.
package filtercontrol

import (
	"net/url"

	"github.com/hupe1980/reportengine/internal/form"
)

// Control is a reusable mapping from one filter declaration to form
// fields.
type Control interface {
	// Name is the filtered field or query parameter.
	Name() string

	// Fields returns the form fields in display order.
	Fields() []form.Entry
}

// Exact filters on equality with free text.
type Exact struct {
	FieldName string
	Label     string
}

// Name implements Control.
func (c Exact) Name() string { return c.FieldName }

// Fields implements Control.
func (c Exact) Fields() []form.Entry {
	return []form.Entry{{Name: c.FieldName, Field: form.Char{Base: form.Base{Text: labelOf(c.Label, c.FieldName)}}}}
}

// StartsWith filters on a case-sensitive prefix.
type StartsWith struct {
	FieldName string
	Label     string
}

// Name implements Control.
func (c StartsWith) Name() string { return c.FieldName }

// Fields implements Control.
func (c StartsWith) Fields() []form.Entry {
	return []form.Entry{{
		Name:  c.FieldName + "__startswith",
		Field: form.Char{Base: form.Base{Text: labelOf(c.Label, c.FieldName) + " starts with"}},
	}}
}

// Boolean filters on a true/false value.
type Boolean struct {
	FieldName string
	Label     string
}

// Name implements Control.
func (c Boolean) Name() string { return c.FieldName }

// Fields implements Control.
func (c Boolean) Fields() []form.Entry {
	return []form.Entry{{Name: c.FieldName, Field: form.Boolean{Base: form.Base{Text: labelOf(c.Label, c.FieldName)}}}}
}

// Choice filters on one of a fixed set of values.
type Choice struct {
	FieldName string
	Label     string
	Choices   []form.Option
}

// Name implements Control.
func (c Choice) Name() string { return c.FieldName }

// Fields implements Control.
func (c Choice) Fields() []form.Entry {
	return []form.Entry{{
		Name:  c.FieldName,
		Field: form.Choice{Base: form.Base{Text: labelOf(c.Label, c.FieldName)}, Choices: c.Choices},
	}}
}

// NumberRange filters on an inclusive numeric range. Integer selects whole
// number fields.
type NumberRange struct {
	FieldName string
	Label     string
	Integer   bool
}

// Name implements Control.
func (c NumberRange) Name() string { return c.FieldName }

// Fields implements Control.
func (c NumberRange) Fields() []form.Entry {
	label := labelOf(c.Label, c.FieldName)

	mk := func(suffix string) form.Field {
		b := form.Base{Text: label + " " + suffix}
		if c.Integer {
			return form.Integer{Base: b}
		}

		return form.Float{Base: b}
	}

	return []form.Entry{
		{Name: c.FieldName + "__gte", Field: mk("(min)")},
		{Name: c.FieldName + "__lte", Field: mk("(max)")},
	}
}

// DateTimeRange filters on a half-open [from, to) range, the shape used by
// date-scoped report masks.
type DateTimeRange struct {
	FieldName string
	Label     string

	// DateOnly uses date fields instead of date/time fields.
	DateOnly bool
}

// Name implements Control.
func (c DateTimeRange) Name() string { return c.FieldName }

// Fields implements Control.
func (c DateTimeRange) Fields() []form.Entry {
	label := labelOf(c.Label, c.FieldName)

	mk := func(suffix string) form.Field {
		b := form.Base{Text: label + " " + suffix}
		if c.DateOnly {
			return form.Date{Base: b}
		}

		return form.DateTime{Base: b}
	}

	return []form.Entry{
		{Name: c.FieldName + "__gte", Field: mk("(from)")},
		{Name: c.FieldName + "__lt", Field: mk("(to)")},
	}
}

func labelOf(label, name string) string {
	if label != "" {
		return label
	}

	return name
}

// Build accumulates the fields of every control into one form over data
// and cleans it.
func Build(data url.Values, controls ...Control) *form.Form {
	f := form.New(data)

	for _, c := range controls {
		if c == nil {
			continue
		}

		f.AddEntries(c.Fields()...)
	}

	f.FullClean()

	return f
}
