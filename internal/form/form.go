// Package form provides the small form abstraction used to validate report
// filter input: a form accumulates named fields, binds raw request values and
// produces either cleaned values or per-field errors.
package form

import (
	"net/url"
	"sort"
)

// Field validates and converts the raw values submitted for one form field.
type Field interface {
	// Label is the human-readable field name.
	Label() string

	// Clean converts raw into a typed value. A nil value with a nil error
	// means the field was left blank.
	Clean(raw []string) (any, error)
}

// Entry is a named field, as contributed by a filter control.
type Entry struct {
	Name  string
	Field Field
}

// Form binds raw input data to an ordered set of named fields.
type Form struct {
	data    url.Values
	names   []string
	fields  map[string]Field
	cleaned map[string]any
	errors  map[string][]string
	bound   bool
}

// New creates a form over data. A nil data map produces an unbound form,
// which is always valid and cleans to defaults only.
func New(data url.Values) *Form {
	return &Form{
		data:   data,
		fields: make(map[string]Field),
		bound:  data != nil,
	}
}

// Add registers a field under name. Adding a name twice replaces the field
// but keeps its original position.
func (f *Form) Add(name string, field Field) {
	if _, ok := f.fields[name]; !ok {
		f.names = append(f.names, name)
	}

	f.fields[name] = field
	f.cleaned = nil
}

// AddEntries registers every entry in order.
func (f *Form) AddEntries(entries ...Entry) {
	for _, e := range entries {
		f.Add(e.Name, e.Field)
	}
}

// Names returns the field names in registration order.
func (f *Form) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)

	return out
}

// Field returns the field registered under name.
func (f *Form) Field(name string) (Field, bool) {
	field, ok := f.fields[name]
	return field, ok
}

// Data returns the raw data the form was bound to.
func (f *Form) Data() url.Values {
	return f.data
}

// IsBound reports whether the form was created with input data.
func (f *Form) IsBound() bool {
	return f.bound
}

// FullClean validates every field against the bound data, replacing any
// previous cleaning result.
func (f *Form) FullClean() {
	f.cleaned = make(map[string]any, len(f.names))
	f.errors = make(map[string][]string)

	for _, name := range f.names {
		field := f.fields[name]

		var raw []string
		if f.data != nil {
			raw = f.data[name]
		}

		v, err := field.Clean(raw)
		if err != nil {
			if f.bound {
				f.errors[name] = append(f.errors[name], err.Error())
			}

			continue
		}

		f.cleaned[name] = v
	}
}

// IsValid reports whether the bound form cleaned without errors. Unbound
// forms are never valid, mirroring a form that has not been submitted.
func (f *Form) IsValid() bool {
	if f.cleaned == nil {
		f.FullClean()
	}

	return f.bound && len(f.errors) == 0
}

// CleanedData returns the cleaned value of every field that validated.
// Blank optional fields map to nil.
func (f *Form) CleanedData() map[string]any {
	if f.cleaned == nil {
		f.FullClean()
	}

	out := make(map[string]any, len(f.cleaned))
	for k, v := range f.cleaned {
		out[k] = v
	}

	return out
}

// Errors returns the per-field validation messages.
func (f *Form) Errors() map[string][]string {
	if f.cleaned == nil {
		f.FullClean()
	}

	out := make(map[string][]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = append([]string(nil), v...)
	}

	return out
}

// ErrorFields returns the names of fields with errors, sorted.
func (f *Form) ErrorFields() []string {
	errs := f.Errors()

	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
