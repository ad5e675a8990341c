// Package sqlreport implements the raw-query data source: row and aggregate
// statements written with named "%(name)s" parameters, bound from the
// resolved filters as driver placeholders.
package sqlreport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/report"
)

var (
	// ErrMissingParam is returned when a template names a parameter the
	// filters do not provide.
	ErrMissingParam = errors.New("sqlreport: missing query parameter")

	// ErrTemplate is returned for malformed parameter directives.
	ErrTemplate = errors.New("sqlreport: malformed template")
)

// Compile replaces every "%(name)s" directive of tmpl with a bind
// placeholder in style and returns the matching arguments in order. "%%"
// renders a literal percent sign. Filter values are never spliced into the
// statement text.
func Compile(tmpl string, filters report.Filters, style database.PlaceholderStyle) (string, []any, error) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}

		if i+1 >= len(tmpl) {
			return "", nil, fmt.Errorf("%w: trailing %% at offset %d", ErrTemplate, i)
		}

		switch tmpl[i+1] {
		case '%':
			sb.WriteByte('%')
			i++
		case '(':
			end := strings.Index(tmpl[i+2:], ")")
			if end < 0 {
				return "", nil, fmt.Errorf("%w: unterminated parameter at offset %d", ErrTemplate, i)
			}

			name := tmpl[i+2 : i+2+end]
			next := i + 2 + end + 1

			if next >= len(tmpl) || tmpl[next] != 's' {
				return "", nil, fmt.Errorf("%w: parameter %q must use the s conversion", ErrTemplate, name)
			}

			v, ok := filters[name]
			if !ok {
				return "", nil, fmt.Errorf("%w %q", ErrMissingParam, name)
			}

			args = append(args, v)
			sb.WriteString(style.Placeholder(len(args)))

			i = next
		default:
			return "", nil, fmt.Errorf("%w: unsupported directive %%%c at offset %d", ErrTemplate, tmpl[i+1], i)
		}
	}

	return sb.String(), args, nil
}

// Params lists the parameter names a template references, in order of
// first appearance.
func Params(tmpl string) []string {
	var (
		names []string
		seen  = map[string]bool{}
	)

	rest := tmpl

	for {
		i := strings.Index(rest, "%")
		if i < 0 || i+1 >= len(rest) {
			return names
		}

		switch rest[i+1] {
		case '%':
			rest = rest[i+2:]
		case '(':
			end := strings.Index(rest[i+2:], ")")
			if end < 0 {
				return names
			}

			name := rest[i+2 : i+2+end]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}

			rest = rest[i+2+end+1:]
		default:
			rest = rest[i+1:]
		}
	}
}

// missingParams returns the names tmpl references that filters lack.
func missingParams(tmpl string, filters report.Filters) []string {
	var missing []string

	for _, name := range Params(tmpl) {
		if _, ok := filters[name]; !ok {
			missing = append(missing, strconv.Quote(name))
		}
	}

	return missing
}
