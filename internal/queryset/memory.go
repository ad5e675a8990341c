package queryset

import (
	"context"
	"slices"

	"github.com/hupe1980/reportengine/internal/report"
)

// Record is one in-memory model instance, keyed by field name. A foreign key
// holds the related Record (or nil); a many-to-many field holds []Record.
type Record map[string]any

// Memory is a QuerySet over a slice of records.
type Memory struct {
	q       query
	records []Record
}

// NewMemory creates a query set over records. The slice is not copied;
// callers must not modify it while the query set is in use.
func NewMemory(model *Model, records []Record) *Memory {
	return &Memory{q: query{model: model}, records: records}
}

// Model implements QuerySet.
func (m *Memory) Model() *Model { return m.q.model }

// Filter implements QuerySet.
func (m *Memory) Filter(filters report.Filters) (QuerySet, error) {
	q, err := m.q.withFilters(filters)
	if err != nil {
		return nil, err
	}

	return &Memory{q: q, records: m.records}, nil
}

// OrderBy implements QuerySet.
func (m *Memory) OrderBy(keys ...string) (QuerySet, error) {
	q, err := m.q.withOrdering(keys)
	if err != nil {
		return nil, err
	}

	return &Memory{q: q, records: m.records}, nil
}

// Values implements QuerySet.
func (m *Memory) Values(ctx context.Context, fields ...string) report.Rows {
	paths, err := m.q.projection(fields)
	if err != nil {
		return report.ErrRows(err)
	}

	return func(yield func(report.Row, error) bool) {
		for _, rec := range m.evaluate() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			row := make(report.Row, len(paths))
			for i, p := range paths {
				row[i] = project(rec, p)
			}

			if !yield(row, nil) {
				return
			}
		}
	}
}

// Count implements QuerySet.
func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return len(m.evaluate()), nil
}

func (m *Memory) evaluate() []Record {
	matched := make([]Record, 0, len(m.records))

	for _, rec := range m.records {
		if m.matches(rec) {
			matched = append(matched, rec)
		}
	}

	if len(m.q.ordering) == 0 {
		return matched
	}

	slices.SortStableFunc(matched, func(a, b Record) int {
		for _, o := range m.q.ordering {
			c, ok := compareValues(first(resolve(a, o.path)), first(resolve(b, o.path)))
			if !ok || c == 0 {
				continue
			}

			if o.desc {
				return -c
			}

			return c
		}

		return 0
	})

	return matched
}

func (m *Memory) matches(rec Record) bool {
	for _, c := range m.q.conditions {
		values := resolve(rec, c.path)
		if len(values) == 0 {
			values = []any{nil}
		}

		hit := false

		for _, v := range values {
			if matchValue(c.path.op, v, c.value) {
				hit = true
				break
			}
		}

		if !hit {
			return false
		}
	}

	return true
}

// resolve follows the relation steps of p and returns every value reached.
// Many-to-many steps fan out. A terminal relation field yields the primary
// keys of the related records.
func resolve(rec Record, p path) []any {
	current := []Record{rec}

	for _, rel := range p.relations {
		var next []Record

		for _, r := range current {
			next = append(next, related(r[rel.Name])...)
		}

		current = next
	}

	out := make([]any, 0, len(current))
	for _, r := range current {
		if p.field.IsRelation() {
			out = append(out, relatedKeys(r[p.field.Name], p.field.Related.PK())...)
			continue
		}

		out = append(out, r[p.field.Name])
	}

	return out
}

// relatedKeys maps a relation value to the primary keys it references. A
// scalar is already a key.
func relatedKeys(v any, pk string) []any {
	switch v.(type) {
	case nil:
		return []any{nil}
	case Record, map[string]any, []Record, []map[string]any, []any:
		records := related(v)

		keys := make([]any, len(records))
		for i, r := range records {
			keys[i] = r[pk]
		}

		return keys
	default:
		return []any{v}
	}
}

func related(v any) []Record {
	switch t := v.(type) {
	case Record:
		return []Record{t}
	case map[string]any:
		return []Record{t}
	case []Record:
		return t
	case []map[string]any:
		out := make([]Record, len(t))
		for i, r := range t {
			out[i] = r
		}

		return out
	case []any:
		var out []Record

		for _, item := range t {
			out = append(out, related(item)...)
		}

		return out
	default:
		return nil
	}
}

func project(rec Record, p path) any {
	values := resolve(rec, p)

	if p.field.Kind == KindManyToMany && p.field.IsRelation() {
		return values
	}

	for _, rel := range p.relations {
		if rel.Kind == KindManyToMany {
			return values
		}
	}

	return first(values)
}

func first(values []any) any {
	if len(values) == 0 {
		return nil
	}

	return values[0]
}
