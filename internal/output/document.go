package output

import (
	"encoding/json"
	"fmt"
	"io"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/reportengine/internal/report"
)

// Document is the structured form of a rendered report shared by the json
// and yaml formats.
type Document struct {
	Report      string              `json:"report"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Columns     []report.Column     `json:"columns"`
	Rows        []map[string]any    `json:"rows"`
	Aggregates  []report.Aggregate  `json:"aggregates,omitempty"`
	Charts      []report.DrawnChart `json:"charts,omitempty"`
	Filters     report.Filters      `json:"filters,omitempty"`
	Page        int                 `json:"page,omitempty"`
	TotalRows   int                 `json:"totalRows"`
}

// NewDocument keys every row by column ID.
func NewDocument(t *Table) Document {
	rows := make([]map[string]any, len(t.Rows))

	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(row) {
				m[c.ID] = row[j]
			}
		}

		rows[i] = m
	}

	return Document{
		Report:      t.Ref,
		Title:       t.Title,
		Description: t.Description,
		Columns:     t.Columns,
		Rows:        rows,
		Aggregates:  t.Aggregates,
		Charts:      t.Charts,
		Filters:     t.Filters,
		Page:        t.Page,
		TotalRows:   t.TotalRows,
	}
}

type jsonFormat struct{ base }

// JSON returns the indented JSON document format. Charts are embedded.
func JSON() Format {
	return jsonFormat{base{name: "json", extension: "json", contentType: "application/json", embedCharts: true}}
}

func (jsonFormat) Render(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(NewDocument(t)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	return nil
}

type yamlFormat struct{ base }

// YAML returns the YAML document format. Keys follow the JSON field names.
// Charts are embedded.
func YAML() Format {
	return yamlFormat{base{name: "yaml", extension: "yaml", contentType: "application/yaml", embedCharts: true}}
}

func (yamlFormat) Render(w io.Writer, t *Table) error {
	data, err := sigsyaml.Marshal(NewDocument(t))
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing yaml: %w", err)
	}

	return nil
}
