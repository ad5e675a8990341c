package sqlreport

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/filtercontrol"
	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/logging"
	"github.com/hupe1980/reportengine/internal/report"
)

// Param declares one query parameter: the filter name it binds, its form
// label and the datatype that selects its filter control.
type Param struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Datatype string `json:"datatype" yaml:"datatype"`
}

// Config configures a Source.
type Config struct {
	DB          database.Queryer
	Placeholder database.PlaceholderStyle

	// RowsSQL yields the report rows. AggregateSQL yields one record whose
	// columns become the aggregates. Either may be empty.
	RowsSQL      string
	AggregateSQL string

	Params []Param

	// Registry defaults to filtercontrol.DefaultRegistry().
	Registry *filtercontrol.Registry
}

// Source is the raw-query report strategy.
type Source struct {
	cfg      Config
	controls []filtercontrol.Control
}

// New resolves the parameter controls and creates a source.
func New(cfg Config) (*Source, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = filtercontrol.DefaultRegistry()
	}

	controls := make([]filtercontrol.Control, 0, len(cfg.Params))

	for _, p := range cfg.Params {
		c, err := registry.FromDatatype(p.Datatype, p.Name, p.Label)
		if err != nil {
			return nil, fmt.Errorf("query param: %w", err)
		}

		controls = append(controls, c)
	}

	cfg.Params = append([]Param(nil), cfg.Params...)

	return &Source{cfg: cfg, controls: controls}, nil
}

// Params returns the declared query parameters.
func (s *Source) Params() []Param { return append([]Param(nil), s.cfg.Params...) }

// FilterForm implements report.FormBuilder.
func (s *Source) FilterForm(data url.Values) *form.Form {
	return filtercontrol.Build(data, s.controls...)
}

// RowData runs the rows statement and returns every record. Ordering is
// left to the statement itself.
func (s *Source) RowData(ctx context.Context, filters report.Filters, _ string) ([]report.Row, error) {
	if s.cfg.RowsSQL == "" {
		return nil, nil
	}

	records, _, err := s.query(ctx, "rows", s.cfg.RowsSQL, filters, false)
	if err != nil {
		return nil, err
	}

	rows := make([]report.Row, len(records))
	for i, r := range records {
		rows[i] = r
	}

	return rows, nil
}

// AggregateData runs the aggregate statement and pairs the column names of
// its first record with the values. No record yields no aggregates.
func (s *Source) AggregateData(ctx context.Context, filters report.Filters) ([]report.Aggregate, error) {
	if s.cfg.AggregateSQL == "" {
		return nil, nil
	}

	records, cols, err := s.query(ctx, "aggregates", s.cfg.AggregateSQL, filters, true)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, nil
	}

	aggs := make([]report.Aggregate, len(cols))
	for i, name := range cols {
		aggs[i] = report.Aggregate{Name: name, Value: records[0][i]}
	}

	return aggs, nil
}

// Fetch implements report.Source.
func (s *Source) Fetch(ctx context.Context, filters report.Filters, orderBy string) (*report.RowSet, error) {
	rows, err := s.RowData(ctx, filters, orderBy)
	if err != nil {
		return nil, err
	}

	aggs, err := s.AggregateData(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &report.RowSet{Rows: report.SliceRows(rows), Aggregates: aggs}, nil
}

func (s *Source) query(ctx context.Context, kind, tmpl string, filters report.Filters, firstOnly bool) ([][]any, []string, error) {
	if s.cfg.DB == nil {
		return nil, nil, fmt.Errorf("sqlreport: no database configured for %s query", kind)
	}

	if missing := missingParams(tmpl, filters); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w for %s query: %s", ErrMissingParam, kind, strings.Join(missing, ", "))
	}

	stmt, args, err := Compile(tmpl, filters, s.cfg.Placeholder)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling %s query: %w", kind, err)
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	rows, err := s.cfg.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("running %s query: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s columns: %w", kind, err)
	}

	var records [][]any

	for rows.Next() {
		r, err := database.ScanRow(rows, len(cols))
		if err != nil {
			return nil, nil, err
		}

		records = append(records, r)

		if firstOnly {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("running %s query: %w", kind, err)
	}

	log.Debug("sql query executed",
		slog.String("kind", kind),
		slog.Int("args", len(args)),
		slog.Int("records", len(records)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return records, cols, nil
}

var (
	_ report.Source      = (*Source)(nil)
	_ report.FormBuilder = (*Source)(nil)
)
