package watch

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/hupe1980/reportengine/internal/report"
)

// Change kinds reported between two reloads.
const (
	ChangeAdded         = "added"
	ChangeRemoved       = "removed"
	ChangeSchemaChanged = "schema-changed"
)

// Change describes one report that differs between two reloads.
type Change struct {
	Kind   string
	Report string
	Detail string
}

// CatalogDiff compares the reports of two reloads by reference. Reports
// present in both are compared by their column schema.
func CatalogDiff(prev, curr []*report.Report) []Change {
	before := index(prev)
	after := index(curr)

	var changes []Change

	for ref, r := range after {
		old, ok := before[ref]
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Report: ref})
			continue
		}

		if detail, changed := schemaDelta(old, r); changed {
			changes = append(changes, Change{Kind: ChangeSchemaChanged, Report: ref, Detail: detail})
		}
	}

	for ref := range before {
		if _, ok := after[ref]; !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, Report: ref})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Report != changes[j].Report {
			return changes[i].Report < changes[j].Report
		}

		return changes[i].Kind < changes[j].Kind
	})

	return changes
}

func index(reports []*report.Report) map[string]*report.Report {
	m := make(map[string]*report.Report, len(reports))
	for _, r := range reports {
		m[r.Ref()] = r
	}

	return m
}

func schemaDelta(old, curr *report.Report) (string, bool) {
	a, b := columnSignature(old.Columns()), columnSignature(curr.Columns())
	if slices.Equal(a, b) {
		return "", false
	}

	return fmt.Sprintf("[%s] -> [%s]", strings.Join(a, ", "), strings.Join(b, ", ")), true
}

func columnSignature(cols []report.Column) []string {
	out := make([]string, len(cols))

	for i, c := range cols {
		out[i] = c.ID
		if c.Type != "" {
			out[i] += ":" + string(c.Type)
		}
	}

	return out
}

// ChangeSummary returns a one-line summary of changes.
func ChangeSummary(changes []Change) string {
	if len(changes) == 0 {
		return "no report changes"
	}

	var added, removed, changed int

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeSchemaChanged:
			changed++
		}
	}

	var parts []string

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d report(s) added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d report(s) removed", removed))
	}

	if changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d schema(s) changed", changed))
	}

	return strings.Join(parts, ", ")
}
