package report

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hupe1980/reportengine/internal/form"
)

// Defaults applied by New to unset definition fields.
const (
	DefaultNamespace   = "Default"
	DefaultSlug        = "base"
	DefaultVerboseName = "Abstract Report"
	DefaultPerPage     = 100
)

// Definition is the authored metadata of a report. Specify either Labels or
// Columns; New derives the other.
type Definition struct {
	Namespace   string
	Slug        string
	VerboseName string
	Description string

	Labels  []string
	Columns []Column

	PerPage    int
	CanShowAll *bool

	// AllowUnspecifiedFilters passes request parameters that the filter
	// form does not declare through to the data source.
	AllowUnspecifiedFilters bool

	// DateField names the field date-range views filter on.
	DateField string

	DefaultMask   Mask
	OutputFormats []OutputFormat
	Charts        []ChartGroup
	Source        Source
}

// Report is a normalized, immutable report definition bound to its source.
type Report struct {
	def Definition
}

// Option configures New.
type Option func(*options)

type options struct {
	defaultFormats []OutputFormat
}

// WithDefaultOutputFormats sets the output formats used when the definition
// declares none.
func WithDefaultOutputFormats(formats ...OutputFormat) Option {
	return func(o *options) {
		o.defaultFormats = formats
	}
}

// New validates def and derives the missing half of the schema: columns
// default to one per label, labels default to the column ids.
func New(def Definition, opts ...Option) (*Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	switch {
	case len(def.Labels) == 0 && len(def.Columns) == 0:
		return nil, ErrNoSchema
	case len(def.Columns) == 0:
		def.Columns = make([]Column, len(def.Labels))
		for i, l := range def.Labels {
			def.Columns[i] = Column{ID: l}
		}
	case len(def.Labels) == 0:
		def.Labels = make([]string, len(def.Columns))
		for i, c := range def.Columns {
			def.Labels[i] = c.ID
		}
	default:
		if len(def.Labels) != len(def.Columns) {
			return nil, fmt.Errorf("%w: %d labels, %d columns", ErrSchemaMismatch, len(def.Labels), len(def.Columns))
		}

		for i, l := range def.Labels {
			if def.Columns[i].ID != l {
				return nil, fmt.Errorf("%w: label %q at position %d, column %q", ErrSchemaMismatch, l, i, def.Columns[i].ID)
			}
		}

		def.Labels = append([]string(nil), def.Labels...)
		def.Columns = copyColumns(def.Columns)
	}

	seen := make(map[string]bool, len(def.Labels))

	for i, l := range def.Labels {
		if l == "" {
			return nil, fmt.Errorf("report: empty label at position %d", i)
		}

		if seen[l] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}

		seen[l] = true

		if !def.Columns[i].Type.Valid() {
			return nil, fmt.Errorf("report: column %q: invalid type %q", l, def.Columns[i].Type)
		}
	}

	if def.Namespace == "" {
		def.Namespace = DefaultNamespace
	}

	if def.Slug == "" {
		def.Slug = DefaultSlug
	}

	if def.VerboseName == "" {
		def.VerboseName = DefaultVerboseName
	}

	if def.PerPage <= 0 {
		def.PerPage = DefaultPerPage
	}

	if def.CanShowAll == nil {
		t := true
		def.CanShowAll = &t
	}

	if def.OutputFormats == nil {
		def.OutputFormats = append([]OutputFormat(nil), o.defaultFormats...)
	}

	for i, g := range def.Charts {
		for _, j := range g.Columns {
			if j < 0 || j >= len(def.Columns) {
				return nil, fmt.Errorf("chart group %d: %w: %d (schema has %d columns)", i, ErrColumnIndex, j, len(def.Columns))
			}
		}
	}

	if b, ok := def.Source.(SchemaBinder); ok {
		def.Source = b.BindSchema(append([]string(nil), def.Labels...))
	}

	return &Report{def: def}, nil
}

// MustNew is like New but panics on error. It is intended for report
// definitions declared at package level.
func MustNew(def Definition, opts ...Option) *Report {
	r, err := New(def, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// Namespace returns the report's namespace.
func (r *Report) Namespace() string { return r.def.Namespace }

// Slug returns the report's slug, unique within its namespace.
func (r *Report) Slug() string { return r.def.Slug }

// Ref returns "namespace/slug".
func (r *Report) Ref() string { return r.def.Namespace + "/" + r.def.Slug }

// VerboseName returns the display name.
func (r *Report) VerboseName() string { return r.def.VerboseName }

// Description returns the optional long description.
func (r *Report) Description() string { return r.def.Description }

// Labels returns the column labels in display order.
func (r *Report) Labels() []string { return append([]string(nil), r.def.Labels...) }

// Columns returns the schema.
func (r *Report) Columns() []Column { return copyColumns(r.def.Columns) }

// PerPage returns the page size.
func (r *Report) PerPage() int { return r.def.PerPage }

// CanShowAll reports whether pagination may be disabled.
func (r *Report) CanShowAll() bool { return *r.def.CanShowAll }

// AllowUnspecifiedFilters reports whether undeclared request parameters are
// passed to the source.
func (r *Report) AllowUnspecifiedFilters() bool { return r.def.AllowUnspecifiedFilters }

// DateField returns the date field name, or "".
func (r *Report) DateField() string { return r.def.DateField }

// OutputFormats returns the formats the report can be rendered in.
func (r *Report) OutputFormats() []OutputFormat {
	return append([]OutputFormat(nil), r.def.OutputFormats...)
}

// OutputFormat returns the declared format with the given name.
func (r *Report) OutputFormat(name string) (OutputFormat, bool) {
	for _, f := range r.def.OutputFormats {
		if f.Name() == name {
			return f, true
		}
	}

	return nil, false
}

// ChartGroups returns the declared chart groups.
func (r *Report) ChartGroups() []ChartGroup {
	return append([]ChartGroup(nil), r.def.Charts...)
}

// Source returns the bound data source, or nil.
func (r *Report) Source() Source { return r.def.Source }

// DefaultMask resolves the declared default filter values. Deferred values
// are evaluated on every call.
func (r *Report) DefaultMask() (Filters, error) {
	return r.def.DefaultMask.Resolve()
}

// FilterForm returns the cleaned filter form for data. Sources that declare
// filters build the form; otherwise it has no fields.
func (r *Report) FilterForm(data url.Values) *form.Form {
	if b, ok := r.def.Source.(FormBuilder); ok {
		return b.FilterForm(data)
	}

	f := form.New(data)
	f.FullClean()

	return f
}

// Rows fetches rows and aggregates from the report's source.
func (r *Report) Rows(ctx context.Context, filters Filters, orderBy string) (*RowSet, error) {
	if r.def.Source == nil {
		return nil, fmt.Errorf("%s: %w", r.Ref(), ErrNotImplemented)
	}

	if filters == nil {
		filters = Filters{}
	}

	return r.def.Source.Fetch(ctx, filters, orderBy)
}

// Charts returns the charts usable with format, adapted to each chart
// group's column selection.
func (r *Report) Charts(format OutputFormat) []Chart {
	return selectCharts(r.def.Charts, format)
}
