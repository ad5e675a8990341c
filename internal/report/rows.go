package report

import "iter"

// Row is one ordered tuple aligned to a report's labels.
type Row []any

// Rows is a lazy, pull-based sequence of rows. Iteration stops at the first
// non-nil error, which is yielded alongside a nil row.
type Rows = iter.Seq2[Row, error]

// Aggregate is a named summary value computed alongside the rows.
type Aggregate struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// RowSet is the result of a data fetch.
type RowSet struct {
	Rows       Rows
	Aggregates []Aggregate
}

// SliceRows adapts an in-memory slice to Rows.
func SliceRows(rows []Row) Rows {
	return func(yield func(Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// ErrRows returns Rows that yields err once.
func ErrRows(err error) Rows {
	return func(yield func(Row, error) bool) {
		yield(nil, err)
	}
}

// CollectRows drains rows into a slice.
func CollectRows(rows Rows) ([]Row, error) {
	if rows == nil {
		return nil, nil
	}

	var out []Row

	for r, err := range rows {
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}

// Aggregate returns the value of the named aggregate.
func (rs *RowSet) Aggregate(name string) (any, bool) {
	for _, a := range rs.Aggregates {
		if a.Name == name {
			return a.Value, true
		}
	}

	return nil, false
}
