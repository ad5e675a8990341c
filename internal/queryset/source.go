package queryset

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hupe1980/reportengine/internal/filtercontrol"
	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/report"
)

// DefaultCountLabel names the aggregate Fetch reports alongside the rows.
const DefaultCountLabel = "total"

// ListFilter declares one filter of a query-backed report: either a lookup
// whose control is inferred from the model field, or a ready control.
type ListFilter struct {
	Lookup  string
	Control filtercontrol.Control
}

// Lookup declares a filter inferred from the model field at lookup.
func Lookup(lookup string) ListFilter { return ListFilter{Lookup: lookup} }

// WithControl declares a filter with an explicit control.
func WithControl(c filtercontrol.Control) ListFilter { return ListFilter{Control: c} }

// Options configures a Source.
type Options struct {
	ListFilter []ListFilter

	// Registry infers controls for lookup filters. Defaults to
	// filtercontrol.DefaultRegistry().
	Registry *filtercontrol.Registry

	// CountLabel overrides DefaultCountLabel.
	CountLabel string
}

// Source is the query-backed report strategy. Rows are the report labels
// projected from the filtered, ordered query set; the only aggregate is the
// record count.
type Source struct {
	base       QuerySet
	store      Store
	model      *Model
	controls   []filtercontrol.Control
	labels     []string
	countLabel string
}

// NewSource creates a source over an explicit base query set.
func NewSource(qs QuerySet, opts Options) (*Source, error) {
	if qs == nil {
		return nil, fmt.Errorf("queryset: nil query set")
	}

	return newSource(qs, nil, qs.Model(), opts)
}

// NewModelSource creates a source whose base query set is resolved from
// store on every fetch.
func NewModelSource(store Store, model *Model, opts Options) (*Source, error) {
	if store == nil || model == nil {
		return nil, fmt.Errorf("queryset: model source needs a store and a model")
	}

	return newSource(nil, store, model, opts)
}

func newSource(qs QuerySet, store Store, model *Model, opts Options) (*Source, error) {
	registry := opts.Registry
	if registry == nil {
		registry = filtercontrol.DefaultRegistry()
	}

	controls := make([]filtercontrol.Control, 0, len(opts.ListFilter))

	for _, lf := range opts.ListFilter {
		if lf.Control != nil {
			controls = append(controls, lf.Control)
			continue
		}

		field, _, err := LookupField(model, lf.Lookup)
		if err != nil {
			return nil, fmt.Errorf("list filter: %w", err)
		}

		c, err := registry.FromModelField(field, lf.Lookup)
		if err != nil {
			return nil, fmt.Errorf("list filter: %w", err)
		}

		controls = append(controls, c)
	}

	countLabel := opts.CountLabel
	if countLabel == "" {
		countLabel = DefaultCountLabel
	}

	return &Source{
		base:       qs,
		store:      store,
		model:      model,
		controls:   controls,
		countLabel: countLabel,
	}, nil
}

// Model returns the queried model.
func (s *Source) Model() *Model { return s.model }

// Controls returns the resolved filter controls.
func (s *Source) Controls() []filtercontrol.Control {
	return append([]filtercontrol.Control(nil), s.controls...)
}

// FilterForm implements report.FormBuilder.
func (s *Source) FilterForm(data url.Values) *form.Form {
	return filtercontrol.Build(data, s.controls...)
}

// BindSchema implements report.SchemaBinder.
func (s *Source) BindSchema(labels []string) report.Source {
	bound := *s
	bound.labels = append([]string(nil), labels...)
	bound.controls = append([]filtercontrol.Control(nil), s.controls...)

	return &bound
}

// QuerySet applies filters and then orderBy to qs, or to the base query set
// when qs is nil. Nothing is executed.
func (s *Source) QuerySet(ctx context.Context, filters report.Filters, orderBy string, qs QuerySet) (QuerySet, error) {
	if qs == nil {
		var err error

		if qs, err = s.baseQuerySet(ctx); err != nil {
			return nil, err
		}
	}

	qs, err := qs.Filter(filters)
	if err != nil {
		return nil, err
	}

	if orderBy != "" {
		if qs, err = qs.OrderBy(orderBy); err != nil {
			return nil, err
		}
	}

	return qs, nil
}

// Fetch implements report.Source.
func (s *Source) Fetch(ctx context.Context, filters report.Filters, orderBy string) (*report.RowSet, error) {
	qs, err := s.QuerySet(ctx, filters, orderBy, nil)
	if err != nil {
		return nil, err
	}

	count, err := qs.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &report.RowSet{
		Rows:       qs.Values(ctx, s.labels...),
		Aggregates: []report.Aggregate{{Name: s.countLabel, Value: count}},
	}, nil
}

func (s *Source) baseQuerySet(ctx context.Context) (QuerySet, error) {
	if s.base != nil {
		return s.base, nil
	}

	qs, err := s.store.All(ctx, s.model)
	if err != nil {
		return nil, fmt.Errorf("resolving %s query set: %w", s.model.Name, err)
	}

	return qs, nil
}

var (
	_ report.Source       = (*Source)(nil)
	_ report.FormBuilder  = (*Source)(nil)
	_ report.SchemaBinder = (*Source)(nil)
)
