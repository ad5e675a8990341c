package queryset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/reportengine/internal/form"
)

// ErrFieldNotFound is returned when a filter, ordering or projection names a
// field the model does not have.
var ErrFieldNotFound = errors.New("queryset: field not found")

// ErrUnsupportedLookup is returned for a lookup operator that does not
// exist, and by Table for lookups it cannot express in SQL.
var ErrUnsupportedLookup = errors.New("queryset: unsupported lookup")

// LookupSep separates relation traversal steps and lookup operators.
const LookupSep = "__"

// Kind is the type of a model field.
type Kind string

// Field kinds.
const (
	KindChar       Kind = "char"
	KindText       Kind = "text"
	KindInteger    Kind = "integer"
	KindFloat      Kind = "float"
	KindBoolean    Kind = "boolean"
	KindDate       Kind = "date"
	KindDateTime   Kind = "datetime"
	KindForeignKey Kind = "foreignkey"
	KindManyToMany Kind = "manytomany"
)

// Field describes one field of a model.
type Field struct {
	Name  string
	Kind  Kind
	Label string

	// Column is the storage column. It defaults to Name, or Name+"_id" for
	// foreign keys.
	Column string

	// Related is the target model of a relation field.
	Related *Model

	Choices []form.Option
}

// IsRelation reports whether the field points at another model.
func (f *Field) IsRelation() bool {
	return (f.Kind == KindForeignKey || f.Kind == KindManyToMany) && f.Related != nil
}

// ColumnName returns the storage column.
func (f *Field) ColumnName() string {
	switch {
	case f.Column != "":
		return f.Column
	case f.Kind == KindForeignKey:
		return f.Name + "_id"
	default:
		return f.Name
	}
}

// FieldName implements filtercontrol.ModelField.
func (f *Field) FieldName() string { return f.Name }

// FieldKind implements filtercontrol.ModelField.
func (f *Field) FieldKind() string { return string(f.Kind) }

// FieldLabel implements filtercontrol.ModelField.
func (f *Field) FieldLabel() string {
	if f.Label != "" {
		return f.Label
	}

	return strings.ReplaceAll(f.Name, "_", " ")
}

// FieldChoices implements filtercontrol.ModelField.
func (f *Field) FieldChoices() []form.Option { return f.Choices }

// Model describes an entity type: its storage table, primary key and
// fields. Relation fields may refer back to the model itself.
type Model struct {
	Name string

	// Table defaults to Name.
	Table string

	// PrimaryKey defaults to "id".
	PrimaryKey string

	Fields []*Field
}

// TableName returns the storage table.
func (m *Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}

	return m.Name
}

// PK returns the primary key field name.
func (m *Model) PK() string {
	if m.PrimaryKey != "" {
		return m.PrimaryKey
	}

	return "id"
}

// Field returns the field called name. The primary key resolves even when
// it is not declared.
func (m *Model) Field(name string) (*Field, error) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, nil
		}
	}

	if name == m.PK() || name == "pk" {
		return &Field{Name: m.PK(), Kind: KindInteger}, nil
	}

	return nil, fmt.Errorf("%w: %s has no field %q", ErrFieldNotFound, m.Name, name)
}

// FieldNames returns the declared field names in order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}

	return names
}

// LookupField resolves the field a lookup such as "order__customer__name"
// refers to, following relations. It stops at the first non-relation field,
// so trailing operators ("created__gte") are ignored. It returns the field
// and the model that declares it.
//
// Each step consumes one segment of the lookup, so traversal of
// self-referential models is bounded by the lookup's length.
func LookupField(model *Model, lookup string) (*Field, *Model, error) {
	parts := strings.Split(lookup, LookupSep)

	current := model

	for i, part := range parts {
		f, err := current.Field(part)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving %q: %w", lookup, err)
		}

		if !f.IsRelation() || i == len(parts)-1 {
			return f, current, nil
		}

		if _, isOp := operators[parts[i+1]]; isOp {
			return f, current, nil
		}

		current = f.Related
	}

	return nil, nil, fmt.Errorf("%w: empty lookup", ErrFieldNotFound)
}

// path is a resolved lookup: relation steps, the terminal field, and the
// comparison operator.
type path struct {
	relations []*Field
	field     *Field
	op        string
}

// parsePath splits a filter or projection key into its path and operator.
func parsePath(model *Model, key string) (path, error) {
	parts := strings.Split(key, LookupSep)

	var p path

	current := model

	for i := 0; i < len(parts); i++ {
		f, err := current.Field(parts[i])
		if err != nil {
			return path{}, fmt.Errorf("resolving %q: %w", key, err)
		}

		rest := parts[i+1:]

		switch {
		case len(rest) == 0:
			p.field, p.op = f, "exact"
			return p, nil
		case len(rest) == 1 && isOperator(rest[0]):
			p.field, p.op = f, rest[0]
			return p, nil
		case !f.IsRelation():
			return path{}, fmt.Errorf("%w %q on %s.%s", ErrUnsupportedLookup, strings.Join(rest, LookupSep), current.Name, f.Name)
		}

		p.relations = append(p.relations, f)
		current = f.Related
	}

	return path{}, fmt.Errorf("%w: empty lookup", ErrFieldNotFound)
}

var operators = map[string]struct{}{
	"exact": {}, "iexact": {},
	"contains": {}, "icontains": {},
	"startswith": {}, "istartswith": {},
	"endswith": {}, "iendswith": {},
	"gt": {}, "gte": {}, "lt": {}, "lte": {},
	"in": {}, "isnull": {},
}

func isOperator(s string) bool {
	_, ok := operators[s]
	return ok
}

// parseOrder splits an ordering key into its path and direction.
func parseOrder(model *Model, key string) (path, bool, error) {
	desc := strings.HasPrefix(key, "-")

	p, err := parsePath(model, strings.TrimPrefix(key, "-"))
	if err != nil {
		return path{}, false, err
	}

	if p.op != "exact" {
		return path{}, false, fmt.Errorf("queryset: cannot order by lookup %q", key)
	}

	return p, desc, nil
}
