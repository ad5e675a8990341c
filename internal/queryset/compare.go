package queryset

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// compareValues orders two scalar values. Times, numbers, booleans and
// strings are compared natively; mixed time/string and number/string pairs
// are coerced. ok is false when the values are not comparable.
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	if ta, tb, ok := asTimes(a, b); ok {
		return ta.Compare(tb), true
	}

	if isNumber(a) || isNumber(b) {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)

		if errA == nil && errB == nil {
			return cmp3(fa < fb, fa > fb), true
		}
	}

	if ba, okA := a.(bool); okA {
		bb, err := cast.ToBoolE(b)
		if err != nil {
			return 0, false
		}

		return cmp3(!ba && bb, ba && !bb), true
	}

	sa, errA := cast.ToStringE(a)
	sb, errB := cast.ToStringE(b)

	if errA != nil || errB != nil {
		return 0, false
	}

	return strings.Compare(sa, sb), true
}

func asTimes(a, b any) (time.Time, time.Time, bool) {
	_, aTime := a.(time.Time)
	_, bTime := b.(time.Time)

	if !aTime && !bTime {
		return time.Time{}, time.Time{}, false
	}

	ta, errA := cast.ToTimeE(a)
	tb, errB := cast.ToTimeE(b)

	return ta, tb, errA == nil && errB == nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

// toList flattens the operand of an "in" lookup.
func toList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}

		return out
	case string:
		parts := strings.Split(t, ",")
		out := make([]any, len(parts))

		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}

		return out
	default:
		if s, err := cast.ToSliceE(v); err == nil {
			return s
		}

		return []any{v}
	}
}

// matchValue applies a lookup operator to a record value.
func matchValue(op string, got, want any) bool {
	switch op {
	case "exact":
		c, ok := compareValues(got, want)
		return ok && c == 0
	case "iexact":
		return got != nil && strings.EqualFold(cast.ToString(got), cast.ToString(want))
	case "contains":
		return got != nil && strings.Contains(cast.ToString(got), cast.ToString(want))
	case "icontains":
		return got != nil && strings.Contains(strings.ToLower(cast.ToString(got)), strings.ToLower(cast.ToString(want)))
	case "startswith":
		return got != nil && strings.HasPrefix(cast.ToString(got), cast.ToString(want))
	case "istartswith":
		return got != nil && strings.HasPrefix(strings.ToLower(cast.ToString(got)), strings.ToLower(cast.ToString(want)))
	case "endswith":
		return got != nil && strings.HasSuffix(cast.ToString(got), cast.ToString(want))
	case "iendswith":
		return got != nil && strings.HasSuffix(strings.ToLower(cast.ToString(got)), strings.ToLower(cast.ToString(want)))
	case "gt", "gte", "lt", "lte":
		if got == nil || want == nil {
			return false
		}

		c, ok := compareValues(got, want)
		if !ok {
			return false
		}

		switch op {
		case "gt":
			return c > 0
		case "gte":
			return c >= 0
		case "lt":
			return c < 0
		default:
			return c <= 0
		}
	case "in":
		for _, candidate := range toList(want) {
			if c, ok := compareValues(got, candidate); ok && c == 0 {
				return true
			}
		}

		return false
	case "isnull":
		return (got == nil) == cast.ToBool(want)
	default:
		return false
	}
}
