package filtercontrol

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/reportengine/internal/form"
)

var (
	// ErrUnknownDatatype is returned for a query parameter datatype with no
	// registered control.
	ErrUnknownDatatype = errors.New("filtercontrol: unknown datatype")

	// ErrUnsupportedField is returned for a model field kind with no
	// registered control.
	ErrUnsupportedField = errors.New("filtercontrol: unsupported field kind")
)

// ModelField is the view of a model field needed to infer a control.
type ModelField interface {
	FieldName() string
	FieldKind() string
	FieldLabel() string
	FieldChoices() []form.Option
}

// DatatypeFactory builds a control for a typed query parameter.
type DatatypeFactory func(name, label string) Control

// FieldFactory builds a control for a model field filtered under name,
// which may be a relation lookup such as "author__country".
type FieldFactory func(field ModelField, name string) Control

// Registry maps query parameter datatypes and model field kinds to control
// factories.
type Registry struct {
	mu        sync.RWMutex
	datatypes map[string]DatatypeFactory
	kinds     map[string]FieldFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		datatypes: make(map[string]DatatypeFactory),
		kinds:     make(map[string]FieldFactory),
	}
}

// RegisterDatatype adds or replaces the factory for datatype.
func (r *Registry) RegisterDatatype(datatype string, factory DatatypeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.datatypes[strings.ToLower(datatype)] = factory
}

// RegisterKind adds or replaces the factory for a model field kind.
func (r *Registry) RegisterKind(kind string, factory FieldFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.kinds[strings.ToLower(kind)] = factory
}

// FromDatatype builds the control for a query parameter.
func (r *Registry) FromDatatype(datatype, name, label string) (Control, error) {
	r.mu.RLock()
	f, ok := r.datatypes[strings.ToLower(datatype)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q for %q (available: %s)", ErrUnknownDatatype, datatype, name, strings.Join(r.Datatypes(), ", "))
	}

	return f(name, label), nil
}

// FromModelField infers the control for a model field.
func (r *Registry) FromModelField(field ModelField, name string) (Control, error) {
	r.mu.RLock()
	f, ok := r.kinds[strings.ToLower(field.FieldKind())]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q for %q", ErrUnsupportedField, field.FieldKind(), name)
	}

	return f(field, name), nil
}

// Datatypes returns the sorted registered datatypes.
func (r *Registry) Datatypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.datatypes))
	for name := range r.datatypes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DefaultRegistry returns a registry with the built-in datatypes (char,
// string, text, integer, number, float, boolean, date, datetime) and model
// field kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	exact := func(name, label string) Control { return Exact{FieldName: name, Label: label} }
	for _, dt := range []string{"char", "string", "text"} {
		r.RegisterDatatype(dt, exact)
	}

	r.RegisterDatatype("integer", func(name, label string) Control {
		return NumberRange{FieldName: name, Label: label, Integer: true}
	})

	number := func(name, label string) Control { return NumberRange{FieldName: name, Label: label} }
	r.RegisterDatatype("number", number)
	r.RegisterDatatype("float", number)

	r.RegisterDatatype("boolean", func(name, label string) Control { return Boolean{FieldName: name, Label: label} })
	r.RegisterDatatype("date", func(name, label string) Control {
		return DateTimeRange{FieldName: name, Label: label, DateOnly: true}
	})
	r.RegisterDatatype("datetime", func(name, label string) Control { return DateTimeRange{FieldName: name, Label: label} })

	r.RegisterKind("char", func(f ModelField, name string) Control {
		if choices := f.FieldChoices(); len(choices) > 0 {
			return Choice{FieldName: name, Label: f.FieldLabel(), Choices: choices}
		}

		return Exact{FieldName: name, Label: f.FieldLabel()}
	})
	r.RegisterKind("text", func(f ModelField, name string) Control {
		return StartsWith{FieldName: name, Label: f.FieldLabel()}
	})
	r.RegisterKind("integer", func(f ModelField, name string) Control {
		if choices := f.FieldChoices(); len(choices) > 0 {
			return Choice{FieldName: name, Label: f.FieldLabel(), Choices: choices}
		}

		return NumberRange{FieldName: name, Label: f.FieldLabel(), Integer: true}
	})
	r.RegisterKind("float", func(f ModelField, name string) Control {
		return NumberRange{FieldName: name, Label: f.FieldLabel()}
	})
	r.RegisterKind("boolean", func(f ModelField, name string) Control {
		return Boolean{FieldName: name, Label: f.FieldLabel()}
	})
	r.RegisterKind("date", func(f ModelField, name string) Control {
		return DateTimeRange{FieldName: name, Label: f.FieldLabel(), DateOnly: true}
	})
	r.RegisterKind("datetime", func(f ModelField, name string) Control {
		return DateTimeRange{FieldName: name, Label: f.FieldLabel()}
	})

	// A relation filtered directly selects among the related records.
	relation := func(f ModelField, name string) Control {
		return Choice{FieldName: name, Label: f.FieldLabel(), Choices: f.FieldChoices()}
	}
	r.RegisterKind("foreignkey", relation)
	r.RegisterKind("manytomany", relation)

	return r
}
