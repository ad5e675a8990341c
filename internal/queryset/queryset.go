// Package queryset implements the object-query data source: a small model
// graph, Django-style filter lookups ("customer__name__icontains"), and two
// query set backends, one over in-memory records and one compiling to SQL.
package queryset

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/reportengine/internal/report"
)

// QuerySet is an immutable, lazily evaluated query over one model. Filter
// and OrderBy return a derived query set and never touch the backend.
type QuerySet interface {
	Model() *Model

	// Filter narrows the query set to records matching every lookup.
	Filter(filters report.Filters) (QuerySet, error)

	// OrderBy replaces the ordering. A leading "-" sorts descending.
	OrderBy(keys ...string) (QuerySet, error)

	// Values projects each record to the given lookups. The backend is only
	// queried once the sequence is iterated.
	Values(ctx context.Context, fields ...string) report.Rows

	Count(ctx context.Context) (int, error)
}

// condition is one compiled filter lookup.
type condition struct {
	key   string
	path  path
	value any
}

// order is one compiled ordering key.
type order struct {
	path path
	desc bool
}

// query holds the backend-independent state shared by the implementations.
type query struct {
	model      *Model
	conditions []condition
	ordering   []order
}

func (q query) withFilters(filters report.Filters) (query, error) {
	out := q
	out.conditions = append([]condition(nil), q.conditions...)

	for _, key := range filters.Keys() {
		p, err := parsePath(q.model, key)
		if err != nil {
			return query{}, fmt.Errorf("filter %q: %w", key, err)
		}

		out.conditions = append(out.conditions, condition{key: key, path: p, value: filters[key]})
	}

	return out, nil
}

func (q query) withOrdering(keys []string) (query, error) {
	out := q
	out.ordering = nil

	for _, key := range keys {
		if key == "" {
			continue
		}

		p, desc, err := parseOrder(q.model, key)
		if err != nil {
			return query{}, err
		}

		out.ordering = append(out.ordering, order{path: p, desc: desc})
	}

	return out, nil
}

func (q query) projection(fields []string) ([]path, error) {
	if len(fields) == 0 {
		fields = q.model.FieldNames()
	}

	paths := make([]path, len(fields))

	for i, name := range fields {
		p, err := parsePath(q.model, name)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", name, err)
		}

		if p.op != "exact" {
			return nil, fmt.Errorf("queryset: cannot project lookup %q", name)
		}

		paths[i] = p
	}

	return paths, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
