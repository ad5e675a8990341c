// Package docs generates a human-readable reference of a report catalog:
// every report's columns, filters, formats and charts. It supports
// Markdown, HTML, and AsciiDoc output formats, with optional example
// invocations.
package docs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/report"
)

// ColumnInfo describes one column of a report schema.
type ColumnInfo struct {
	// ID is the column key.
	ID string
	// Label is the display label.
	Label string
	// Type is the declared data type, "-" when unspecified.
	Type string
}

// FilterInfo describes one filter form field.
type FilterInfo struct {
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Type     string        `json:"type"`
	Required bool          `json:"required,omitempty"`
	Default  any           `json:"default,omitempty"`
	Choices  []form.Option `json:"choices,omitempty"`
}

// ReportInfo describes one report.
type ReportInfo struct {
	Ref         string
	Name        string
	Description string
	DateField   string
	PerPage     int
	Columns     []ColumnInfo
	Filters     []FilterInfo
	Formats     []string
	Charts      []string
}

// DocModel is the structured data model for documentation generation.
type DocModel struct {
	// Title overrides the document title.
	Title string
	// Reports are sorted by namespace, then name.
	Reports []ReportInfo
	// IncludeExamples controls whether an example invocation is added per
	// report.
	IncludeExamples bool
}

// FromReports builds a DocModel from reports, in the given order.
func FromReports(reports []*report.Report) (*DocModel, error) {
	model := &DocModel{Reports: make([]ReportInfo, 0, len(reports))}

	for _, r := range reports {
		info, err := Describe(r)
		if err != nil {
			return nil, err
		}

		model.Reports = append(model.Reports, info)
	}

	return model, nil
}

// Describe extracts the documentation of a single report.
func Describe(r *report.Report) (ReportInfo, error) {
	filters, err := Filters(r)
	if err != nil {
		return ReportInfo{}, err
	}

	info := ReportInfo{
		Ref:         r.Ref(),
		Name:        r.VerboseName(),
		Description: r.Description(),
		DateField:   r.DateField(),
		PerPage:     r.PerPage(),
		Filters:     filters,
	}

	for _, c := range r.Columns() {
		typ := string(c.Type)
		if typ == "" {
			typ = "-"
		}

		info.Columns = append(info.Columns, ColumnInfo{ID: c.ID, Label: c.DisplayLabel(), Type: typ})
	}

	for _, f := range r.OutputFormats() {
		info.Formats = append(info.Formats, f.Name())
	}

	seen := map[string]bool{}

	for _, g := range r.ChartGroups() {
		for _, c := range g.Charts {
			if !seen[c.Name()] {
				seen[c.Name()] = true
				info.Charts = append(info.Charts, c.Name())
			}
		}
	}

	return info, nil
}

// Filters describes the filter form of r, with defaults from its mask.
func Filters(r *report.Report) ([]FilterInfo, error) {
	defaults, err := r.DefaultMask()
	if err != nil {
		return nil, fmt.Errorf("resolving default mask of %s: %w", r.Ref(), err)
	}

	f := r.FilterForm(nil)
	out := make([]FilterInfo, 0, len(f.Names()))

	for _, name := range f.Names() {
		field, _ := f.Field(name)
		out = append(out, describeField(name, field, defaults[name]))
	}

	return out, nil
}

func describeField(name string, f form.Field, def any) FilterInfo {
	fi := FilterInfo{Name: name, Label: f.Label(), Default: def}

	switch t := f.(type) {
	case form.Char:
		fi.Type, fi.Required = "text", t.Required
	case form.Integer:
		fi.Type, fi.Required = "integer", t.Required
	case form.Float:
		fi.Type, fi.Required = "number", t.Required
	case form.Boolean:
		fi.Type, fi.Required = "boolean", t.Required
	case form.Date:
		fi.Type, fi.Required = "date", t.Required
	case form.DateTime:
		fi.Type, fi.Required = "datetime", t.Required
	case form.Choice:
		fi.Type, fi.Required, fi.Choices = "choice", t.Required, t.Choices
	default:
		fi.Type = fmt.Sprintf("%T", f)
	}

	return fi
}

// DefaultString renders a filter default for tables, "-" when unset.
func (fi FilterInfo) DefaultString() string {
	if fi.Default == nil {
		return "-"
	}

	s := cast.ToString(fi.Default)
	if s == "" {
		return "-"
	}

	return s
}

// ChoiceList joins the choice values.
func (fi FilterInfo) ChoiceList() string {
	values := make([]string, len(fi.Choices))
	for i, o := range fi.Choices {
		values[i] = cast.ToString(o.Value)
	}

	return strings.Join(values, ",")
}

// ExampleCommand returns a CLI invocation that runs the report with an
// example value for every filter.
func ExampleCommand(info ReportInfo) string {
	var sb strings.Builder

	sb.WriteString("reportengine run ")
	sb.WriteString(info.Ref)

	if len(info.Formats) > 0 {
		sb.WriteString(" --format ")
		sb.WriteString(info.Formats[0])
	}

	filters := append([]FilterInfo(nil), info.Filters...)
	sort.SliceStable(filters, func(i, j int) bool { return filters[i].Name < filters[j].Name })

	for _, f := range filters {
		fmt.Fprintf(&sb, " \\\n  --filter %s=%s", f.Name, exampleValue(f))
	}

	sb.WriteString("\n")

	return sb.String()
}

// exampleValue returns an example for a filter: its default, the first
// choice, or a placeholder for its type.
func exampleValue(f FilterInfo) string {
	if s := cast.ToString(f.Default); s != "" {
		return s
	}

	if len(f.Choices) > 0 {
		return cast.ToString(f.Choices[0].Value)
	}

	switch f.Type {
	case "integer":
		return "0"
	case "number":
		return "0.0"
	case "boolean":
		return "true"
	case "date":
		return "2006-01-02"
	case "datetime":
		return "2006-01-02T15:04:05"
	default:
		return "example"
	}
}
