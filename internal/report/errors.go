package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotImplemented is returned when rows are requested from a report
	// that has no data source. It signals a programming error.
	ErrNotImplemented = errors.New("report: no data source configured")

	// ErrNoSchema is returned by New when neither labels nor columns are set.
	ErrNoSchema = errors.New("report: either labels or columns must be specified")

	// ErrSchemaMismatch is returned by New when labels and columns are both
	// set and disagree.
	ErrSchemaMismatch = errors.New("report: labels do not match column ids")

	// ErrDuplicateLabel is returned by New when a label occurs twice.
	ErrDuplicateLabel = errors.New("report: duplicate label")

	// ErrColumnIndex is returned when a chart's column index is out of range
	// for the schema it is drawn on.
	ErrColumnIndex = errors.New("report: chart column index out of range")
)

// FormError reports that the filter form did not validate. Fields maps each
// invalid form field to its messages.
type FormError struct {
	Fields map[string][]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name, msgs := range e.Fields {
		names = append(names, fmt.Sprintf("%s: %s", name, strings.Join(msgs, "; ")))
	}

	sort.Strings(names)

	return "invalid filters: " + strings.Join(names, ", ")
}
