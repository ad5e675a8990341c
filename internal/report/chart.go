package report

import (
	"fmt"
	"slices"
)

// Chart produces a renderable chart object from a schema and its data rows.
// params carries renderer-specific options and is passed through untouched
// by adapters.
type Chart interface {
	Name() string
	Draw(schema []Column, data []Row, params map[string]any) (any, error)
}

// OutputFormat is the core's view of an output format: a name used by
// format filters, and the capability to embed a given chart.
type OutputFormat interface {
	Name() string
	CanEmbed(chart Chart) bool
}

// FormatFilter restricts a chart group to some output formats. It is a
// closed set of variants: see Unrestricted, Predicate and FormatIsOneOf.
type FormatFilter interface {
	formatFilter()
}

type unrestricted struct{}

func (unrestricted) formatFilter() {}

type predicate struct{ fn func(Chart) bool }

func (predicate) formatFilter() {}

type formatSet struct{ names []string }

func (formatSet) formatFilter() {}

// Unrestricted applies a chart group to every output format.
func Unrestricted() FormatFilter { return unrestricted{} }

// Predicate applies a chart group's charts for which fn returns true.
func Predicate(fn func(Chart) bool) FormatFilter { return predicate{fn: fn} }

// FormatIsOneOf applies a chart group only to the named output formats.
func FormatIsOneOf(names ...string) FormatFilter {
	return formatSet{names: append([]string(nil), names...)}
}

// ChartGroup declares charts together with the columns (indices into the
// report schema, in the order the charts should see them) and the output
// formats they apply to. Empty Columns means all columns in schema order;
// a nil Formats is unrestricted.
type ChartGroup struct {
	Charts  []Chart
	Columns []int
	Formats FormatFilter
}

func (g ChartGroup) allows(chart Chart, format OutputFormat) bool {
	switch f := g.Formats.(type) {
	case nil, unrestricted:
		return true
	case predicate:
		return f.fn == nil || f.fn(chart)
	case formatSet:
		if len(f.names) == 0 {
			return true
		}

		return format != nil && slices.Contains(f.names, format.Name())
	default:
		panic(fmt.Sprintf("report: unknown format filter %T", g.Formats))
	}
}

// selectCharts returns the charts of groups usable with format, each wrapped
// with its group's column rearrangement, in declaration order.
func selectCharts(groups []ChartGroup, format OutputFormat) []Chart {
	var out []Chart

	for _, g := range groups {
		wrap := RearrangeColumns(g.Columns...)

		for _, c := range g.Charts {
			if !g.allows(c, format) {
				continue
			}

			if format == nil || !format.CanEmbed(c) {
				continue
			}

			out = append(out, wrap(c))
		}
	}

	return out
}

// RearrangeColumns returns an adapter that makes a chart see only the given
// columns, in the given order. Without indices the adapter is the identity.
func RearrangeColumns(indices ...int) func(Chart) Chart {
	if len(indices) == 0 {
		return func(c Chart) Chart { return c }
	}

	idx := append([]int(nil), indices...)

	return func(c Chart) Chart {
		return &rearranged{chart: c, indices: idx}
	}
}

type rearranged struct {
	chart   Chart
	indices []int
}

func (r *rearranged) Name() string { return r.chart.Name() }

// Unwrap returns the adapted chart.
func (r *rearranged) Unwrap() Chart { return r.chart }

// Columns returns the projected column indices.
func (r *rearranged) Columns() []int { return append([]int(nil), r.indices...) }

func (r *rearranged) Draw(schema []Column, data []Row, params map[string]any) (any, error) {
	s, d, err := Rearrange(r.indices, schema, data)
	if err != nil {
		return nil, fmt.Errorf("drawing %s: %w", r.chart.Name(), err)
	}

	return r.chart.Draw(s, d, params)
}

// Rearrange projects schema and data onto indices. Empty indices return the
// inputs unchanged.
func Rearrange(indices []int, schema []Column, data []Row) ([]Column, []Row, error) {
	if len(indices) == 0 {
		return schema, data, nil
	}

	s := make([]Column, len(indices))

	for i, j := range indices {
		if j < 0 || j >= len(schema) {
			return nil, nil, fmt.Errorf("%w: %d (schema has %d columns)", ErrColumnIndex, j, len(schema))
		}

		s[i] = schema[j]
	}

	d := make([]Row, len(data))

	for n, row := range data {
		projected := make(Row, len(indices))

		for i, j := range indices {
			if j < 0 || j >= len(row) {
				return nil, nil, fmt.Errorf("%w: %d (row %d has %d values)", ErrColumnIndex, j, n, len(row))
			}

			projected[i] = row[j]
		}

		d[n] = projected
	}

	return s, d, nil
}
