package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/logging"
)

// Request describes one report invocation.
type Request struct {
	// Data is the raw filter input. Nil means "no filters submitted"; the
	// default mask alone is used.
	Data url.Values

	// OrderBy is a column key, optionally prefixed with "-" for descending.
	OrderBy string

	// Page selects a 1-based page of PerPage rows. Zero returns all rows
	// when the report allows it, the first page otherwise.
	Page int

	// Format is the output format charts are selected for. Nil selects no
	// charts.
	Format OutputFormat
}

// Result is everything an output format needs to render a report.
type Result struct {
	Report     *Report
	Schema     []Column
	Rows       []Row
	Aggregates []Aggregate
	Charts     []Chart
	Filters    Filters
	Page       int
	TotalRows  int
}

// ResolveFilters builds the filters for a cleaned form: the default mask
// first, then the form's non-blank cleaned values. When the report allows
// unspecified filters, raw request keys the form does not declare are
// overlaid last.
func (r *Report) ResolveFilters(f *form.Form) (Filters, error) {
	defaults, err := r.DefaultMask()
	if err != nil {
		return nil, err
	}

	explicit := Filters{}

	for k, v := range f.CleanedData() {
		if isBlank(v) {
			continue
		}

		explicit[k] = v
	}

	filters := Overlay(defaults, explicit)

	if r.def.AllowUnspecifiedFilters && f.Data() != nil {
		for k, vs := range f.Data() {
			if _, declared := f.Field(k); declared || len(vs) == 0 || vs[0] == "" {
				continue
			}

			if len(vs) == 1 {
				filters[k] = vs[0]
			} else {
				filters[k] = append([]string(nil), vs...)
			}
		}
	}

	return filters, nil
}

// Run executes a report end to end: mask resolution, filter validation,
// fetch, paging and chart selection.
func (r *Report) Run(ctx context.Context, req Request) (*Result, error) {
	logger := logging.FromContext(ctx).With(slog.String("report", r.Ref()))

	f := r.FilterForm(req.Data)
	if f.IsBound() && !f.IsValid() {
		return nil, &FormError{Fields: f.Errors()}
	}

	filters, err := r.ResolveFilters(f)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	rs, err := r.Rows(ctx, filters, req.OrderBy)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", r.Ref(), err)
	}

	rows, err := CollectRows(rs.Rows)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", r.Ref(), err)
	}

	logger.Debug("rows fetched",
		slog.Int("rows", len(rows)),
		slog.Int("aggregates", len(rs.Aggregates)),
		slog.Duration("elapsed", time.Since(start)),
	)

	page := req.Page
	if page <= 0 && !r.CanShowAll() {
		page = 1
	}

	res := &Result{
		Report:     r,
		Schema:     r.Columns(),
		Rows:       paginate(rows, page, r.def.PerPage),
		Aggregates: rs.Aggregates,
		Filters:    filters,
		Page:       page,
		TotalRows:  len(rows),
	}

	if req.Format != nil {
		res.Charts = r.Charts(req.Format)
		logger.Debug("charts selected",
			slog.String("format", req.Format.Name()),
			slog.Int("charts", len(res.Charts)),
		)
	}

	return res, nil
}

// DrawnChart is a chart object produced from a result.
type DrawnChart struct {
	Name   string `json:"name"`
	Object any    `json:"chart"`
}

// DrawCharts invokes every selected chart on the result's schema and rows.
func (res *Result) DrawCharts(params map[string]any) ([]DrawnChart, error) {
	out := make([]DrawnChart, 0, len(res.Charts))

	for _, c := range res.Charts {
		obj, err := c.Draw(res.Schema, res.Rows, params)
		if err != nil {
			return nil, err
		}

		out = append(out, DrawnChart{Name: c.Name(), Object: obj})
	}

	return out, nil
}

func paginate(rows []Row, page, perPage int) []Row {
	if page <= 0 {
		return rows
	}

	start := (page - 1) * perPage
	if start >= len(rows) {
		return []Row{}
	}

	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}

	return rows[start:end]
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}
