package report

import (
	"context"
	"net/url"

	"github.com/hupe1980/reportengine/internal/form"
)

// Source is a data-source strategy. Given resolved filters and an ordering
// key it produces the rows and aggregates of a report.
type Source interface {
	Fetch(ctx context.Context, filters Filters, orderBy string) (*RowSet, error)
}

// FormBuilder is implemented by sources that declare filters. The returned
// form must already be cleaned.
type FormBuilder interface {
	FilterForm(data url.Values) *form.Form
}

// SchemaBinder is implemented by sources that need the report's labels,
// for example to project query results. BindSchema returns a bound copy and
// must not modify the receiver.
type SchemaBinder interface {
	BindSchema(labels []string) Source
}

// SourceFunc adapts arbitrary code to Source.
type SourceFunc func(ctx context.Context, filters Filters, orderBy string) (*RowSet, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, filters Filters, orderBy string) (*RowSet, error) {
	return f(ctx, filters, orderBy)
}

// StaticSource serves a fixed in-memory row set, optionally narrowed by a
// caller-provided predicate. It is the simplest procedural source and is
// handy for reports computed elsewhere.
type StaticSource struct {
	Data       []Row
	Aggregates []Aggregate

	// Match, when set, decides whether a row satisfies the filters.
	Match func(row Row, filters Filters) bool
}

// Fetch implements Source.
func (s StaticSource) Fetch(_ context.Context, filters Filters, _ string) (*RowSet, error) {
	rows := s.Data

	if s.Match != nil {
		rows = make([]Row, 0, len(s.Data))

		for _, r := range s.Data {
			if s.Match(r, filters) {
				rows = append(rows, r)
			}
		}
	}

	aggs := make([]Aggregate, len(s.Aggregates))
	copy(aggs, s.Aggregates)

	return &RowSet{Rows: SliceRows(rows), Aggregates: aggs}, nil
}
