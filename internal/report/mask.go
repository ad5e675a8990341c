package report

import (
	"fmt"
	"sort"

	"github.com/hupe1980/reportengine/internal/maputil"
)

// Filters is a resolved mapping of filter keys (for example "date__gte") to
// concrete values, in the form a data source understands.
type Filters map[string]any

// Clone returns a copy of f.
func (f Filters) Clone() Filters {
	return Filters(maputil.DeepCopyMap(f))
}

// Keys returns the filter keys sorted.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// MaskValue is a default filter value: either a static value or a deferred
// producer evaluated each time the mask is resolved.
type MaskValue interface {
	resolve() (any, error)
}

type staticValue struct{ v any }

func (s staticValue) resolve() (any, error) { return s.v, nil }

// DeferredValue holds a thunk evaluated at mask resolution time, never at
// definition time.
type DeferredValue struct {
	fn func() (any, error)
}

func (d DeferredValue) resolve() (any, error) { return d.fn() }

// Static wraps a value that is used as-is.
func Static(v any) MaskValue { return staticValue{v: v} }

// Deferred wraps a producer that cannot fail.
func Deferred(fn func() any) MaskValue {
	return DeferredValue{fn: func() (any, error) { return fn(), nil }}
}

// DeferredE wraps a producer that may fail.
func DeferredE(fn func() (any, error)) MaskValue {
	return DeferredValue{fn: fn}
}

// Mask declares the default filter values of a report.
type Mask map[string]MaskValue

// Resolve evaluates every entry, invoking deferred producers. It fails only
// when a producer fails.
func (m Mask) Resolve() (Filters, error) {
	out := make(Filters, len(m))

	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}

		resolved, err := v.resolve()
		if err != nil {
			return nil, fmt.Errorf("resolving default for %q: %w", k, err)
		}

		out[k] = resolved
	}

	return out, nil
}

// Overlay returns base with every entry of overrides applied on top.
func Overlay(base Filters, overrides ...Filters) Filters {
	out := base.Clone()
	if out == nil {
		out = make(Filters)
	}

	for _, o := range overrides {
		maputil.Merge(out, o)
	}

	return out
}
