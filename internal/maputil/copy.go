// Package maputil provides the map helpers used to build filter masks: deep
// copies so resolved masks never share state across invocations, and merging
// so that explicit filters override defaults.
package maputil

// DeepCopyMap performs a deep copy of a string-keyed map. Nested maps and
// slices of the generic shapes produced by YAML and JSON decoding are copied;
// other values are shared.
func DeepCopyMap[M ~map[string]any](src M) M {
	if src == nil {
		return nil
	}

	dst := make(M, len(src))

	for k, v := range src {
		dst[k] = copyValue(v)
	}

	return dst
}

// DeepCopySlice performs a deep copy of a []any.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))

	for i, v := range src {
		dst[i] = copyValue(v)
	}

	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Merge copies every entry of src into dst, overwriting existing keys.
// Values are deep-copied so dst never aliases src.
func Merge[M ~map[string]any](dst, src M) {
	for k, v := range src {
		dst[k] = copyValue(v)
	}
}
