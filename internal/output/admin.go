package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/reportengine/internal/report"
)

type adminFormat struct{ base }

// Admin returns the interactive text view: a heading, the applied filters,
// an aligned table with values converted per column datatype, the
// aggregates and every embedded chart.
func Admin() Format {
	return adminFormat{base{name: "admin", extension: "txt", contentType: "text/plain; charset=utf-8", embedCharts: true}}
}

func (adminFormat) Render(w io.Writer, t *Table) error {
	ew := &errWriter{w: w}

	if t.Title != "" {
		ew.printf("%s\n", t.Title)
		ew.printf("%s\n", strings.Repeat("=", len(t.Title)))
	}

	if t.Description != "" {
		ew.printf("%s\n", t.Description)
	}

	if len(t.Filters) > 0 {
		parts := make([]string, 0, len(t.Filters))
		for _, k := range t.Filters.Keys() {
			parts = append(parts, fmt.Sprintf("%s=%s", k, formatString(t.Filters[k])))
		}

		ew.printf("Filters: %s\n", strings.Join(parts, ", "))
	}

	if ew.n > 0 {
		ew.printf("\n")
	}

	if ew.err != nil {
		return ew.err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = strings.ToUpper(c.DisplayLabel())
	}

	fmt.Fprintln(tw, strings.Join(header, "\t"))

	conv := Converters(t.Columns)
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(convertRow(row, conv), "\t"))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	ew.printf("\n%s\n", pageSummary(t))

	for _, a := range t.Aggregates {
		ew.printf("%s: %s\n", a.Name, formatString(a.Value))
	}

	for _, c := range t.Charts {
		obj, err := json.Marshal(c.Object)
		if err != nil {
			return fmt.Errorf("encoding chart %q: %w", c.Name, err)
		}

		ew.printf("\nChart: %s\n%s\n", c.Name, obj)
	}

	return ew.err
}

func pageSummary(t *Table) string {
	if t.Page > 0 {
		return fmt.Sprintf("%d of %d rows (page %d)", len(t.Rows), t.TotalRows, t.Page)
	}

	return fmt.Sprintf("%d rows", t.TotalRows)
}

// errWriter keeps the first write error so rendering code can print
// without checking every call.
type errWriter struct {
	w   io.Writer
	n   int
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	n, err := fmt.Fprintf(ew.w, format, args...)
	ew.n += n
	ew.err = err
}

var _ report.OutputFormat = adminFormat{}
