package output

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/reportengine/internal/report"
)

// Format renders a report result. Beyond the core's view of a format
// (name and chart embedding) it knows its file extension and content type.
type Format interface {
	report.OutputFormat

	Extension() string
	ContentType() string
	Render(w io.Writer, t *Table) error
}

// Table is everything a format renders: the report metadata, the schema,
// the current page of rows, aggregates and the drawn charts.
type Table struct {
	Ref         string
	Title       string
	Description string
	Columns     []report.Column
	Rows        []report.Row
	Aggregates  []report.Aggregate
	Charts      []report.DrawnChart
	Filters     report.Filters
	Page        int
	TotalRows   int
}

// NewTable assembles a Table from a run result and its drawn charts.
func NewTable(res *report.Result, charts []report.DrawnChart) *Table {
	t := &Table{
		Columns:    res.Schema,
		Rows:       res.Rows,
		Aggregates: res.Aggregates,
		Charts:     charts,
		Filters:    res.Filters,
		Page:       res.Page,
		TotalRows:  res.TotalRows,
	}

	if r := res.Report; r != nil {
		t.Ref = r.Ref()
		t.Title = r.VerboseName()
		t.Description = r.Description()
	}

	return t
}

// RenderBytes renders t with f into memory.
func RenderBytes(f Format, t *Table) ([]byte, error) {
	var buf bytes.Buffer

	if err := f.Render(&buf, t); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", f.Name(), err)
	}

	return buf.Bytes(), nil
}

// base carries the metadata shared by the built-in formats.
type base struct {
	name        string
	extension   string
	contentType string
	embedCharts bool
}

// Name implements report.OutputFormat.
func (b base) Name() string { return b.name }

// CanEmbed implements report.OutputFormat.
func (b base) CanEmbed(report.Chart) bool { return b.embedCharts }

// Extension implements Format.
func (b base) Extension() string { return b.extension }

// ContentType implements Format.
func (b base) ContentType() string { return b.contentType }

// DefaultFormats returns the formats a report offers when it declares
// none: admin, csv, and xlsx when the binary is built with it.
func DefaultFormats() []Format {
	formats := []Format{Admin(), CSV()}

	if x, ok := XLSX(); ok {
		formats = append(formats, x)
	}

	return formats
}

// AsOutputFormats converts formats for report.WithDefaultOutputFormats.
func AsOutputFormats(formats []Format) []report.OutputFormat {
	out := make([]report.OutputFormat, len(formats))
	for i, f := range formats {
		out[i] = f
	}

	return out
}

// Rendering is a report run rendered in one format.
type Rendering struct {
	Data   []byte
	Result *report.Result
	Charts []report.DrawnChart
}

// Render runs r for f, draws the selected charts with chartParams and
// renders the result.
func Render(ctx context.Context, r *report.Report, req report.Request, f Format, chartParams map[string]any) (*Rendering, error) {
	req.Format = f

	res, err := r.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	charts, err := res.DrawCharts(chartParams)
	if err != nil {
		return nil, fmt.Errorf("drawing charts of %s: %w", r.Ref(), err)
	}

	data, err := RenderBytes(f, NewTable(res, charts))
	if err != nil {
		return nil, err
	}

	return &Rendering{Data: data, Result: res, Charts: charts}, nil
}

// Execute is Render reduced to the rendered bytes.
func Execute(ctx context.Context, r *report.Report, req report.Request, f Format, chartParams map[string]any) ([]byte, error) {
	out, err := Render(ctx, r, req, f, chartParams)
	if err != nil {
		return nil, err
	}

	return out.Data, nil
}
