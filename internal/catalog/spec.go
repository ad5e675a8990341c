package catalog

import (
	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/sqlreport"
)

// Source types of a definition.
const (
	SourceSQL     = "sql"
	SourceDateSQL = "date-sql"
	SourceModel   = "model"
	SourceStatic  = "static"
)

// DefinitionSpec is one YAML report definition document.
type DefinitionSpec struct {
	// Requires is a semantic version constraint on the binary, for example
	// ">= 1.2".
	Requires string `yaml:"requires,omitempty"`

	Namespace   string          `yaml:"namespace,omitempty"`
	Slug        string          `yaml:"slug"`
	Name        string          `yaml:"name,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Labels      []string        `yaml:"labels,omitempty"`
	Columns     []report.Column `yaml:"columns,omitempty"`

	PerPage                 int    `yaml:"per_page,omitempty"`
	CanShowAll              *bool  `yaml:"can_show_all,omitempty"`
	AllowUnspecifiedFilters bool   `yaml:"allow_unspecified_filters,omitempty"`
	DateField               string `yaml:"date_field,omitempty"`

	// Formats names the output formats offered. Empty selects the defaults.
	Formats []string `yaml:"formats,omitempty"`

	// Mask holds default filter values. A value of the form {today: N}
	// resolves to today's date shifted by N days at every run.
	Mask map[string]any `yaml:"mask,omitempty"`

	Source SourceSpec  `yaml:"source"`
	Charts []ChartSpec `yaml:"charts,omitempty"`
}

// Ref returns the "namespace/slug" the definition registers under.
func (s DefinitionSpec) Ref() string {
	ns := s.Namespace
	if ns == "" {
		ns = report.DefaultNamespace
	}

	return ns + "/" + s.Slug
}

// SourceSpec declares where a report's rows come from.
type SourceSpec struct {
	Type string `yaml:"type"`

	// sql and date-sql
	RowsSQL      string            `yaml:"rows_sql,omitempty"`
	AggregateSQL string            `yaml:"aggregate_sql,omitempty"`
	Params       []sqlreport.Param `yaml:"params,omitempty"`

	// model
	Model      *ModelSpec `yaml:"model,omitempty"`
	ListFilter []string   `yaml:"list_filter,omitempty"`

	// static
	Rows [][]any `yaml:"rows,omitempty"`
}

// ModelSpec declares a queryable model. Relation fields nest the related
// model.
type ModelSpec struct {
	Name       string      `yaml:"name"`
	Table      string      `yaml:"table,omitempty"`
	PrimaryKey string      `yaml:"primary_key,omitempty"`
	Fields     []FieldSpec `yaml:"fields"`
}

// FieldSpec declares one model field.
type FieldSpec struct {
	Name    string        `yaml:"name"`
	Kind    string        `yaml:"kind"`
	Label   string        `yaml:"label,omitempty"`
	Column  string        `yaml:"column,omitempty"`
	Related *ModelSpec    `yaml:"related,omitempty"`
	Choices []form.Option `yaml:"choices,omitempty"`
}

// ChartSpec declares one chart and the columns and formats it applies to.
type ChartSpec struct {
	Kind    string   `yaml:"kind"`
	Title   string   `yaml:"title,omitempty"`
	Columns []int    `yaml:"columns,omitempty"`
	Formats []string `yaml:"formats,omitempty"`
}
