// Package reportengine provides a public Go API for running reports
// declared in YAML definition files.
//
// This package exposes the report engine as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	result, err := reportengine.Run(ctx, "sales/by-month",
//	    reportengine.WithDefinitions("reports/"),
//	    reportengine.WithDB(db, "postgres"),
//	    reportengine.WithFormat("csv"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Output))
package reportengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/reportengine/internal/catalog"
	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/logging"
	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/version"
)

var (
	// ErrNotFound is returned when the named report is not defined.
	ErrNotFound = catalog.ErrNotFound

	// ErrUnsupportedFormat is returned when a report does not offer the
	// requested format.
	ErrUnsupportedFormat = errors.New("reportengine: unsupported format")
)

// FormError reports filter values that failed validation.
type FormError = report.FormError

// Option configures a Run or List call.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	definitions []string
	documents   []document

	db     *sql.DB
	driver string

	format      string
	filters     url.Values
	orderBy     string
	page        int
	chartParams map[string]any

	clock  func() time.Time
	logger *slog.Logger
}

type document struct {
	name string
	data []byte
}

// WithDefinitions adds definition files or directories.
func WithDefinitions(paths ...string) Option {
	return func(o *options) { o.definitions = append(o.definitions, paths...) }
}

// WithDefinitionData adds an in-memory definition document. name appears
// in error messages.
func WithDefinitionData(name string, data []byte) Option {
	return func(o *options) { o.documents = append(o.documents, document{name: name, data: data}) }
}

// WithDB sets the database SQL and model sources query. driver selects
// the placeholder and quoting dialect: "postgres", "mysql" or "sqlite".
func WithDB(db *sql.DB, driver string) Option {
	return func(o *options) { o.db, o.driver = db, driver }
}

// WithFormat sets the output format (default: "csv").
func WithFormat(name string) Option { return func(o *options) { o.format = name } }

// WithFilters sets the raw filter values.
func WithFilters(data url.Values) Option { return func(o *options) { o.filters = data } }

// WithOrderBy sets the ordering column, prefixed with "-" for descending.
func WithOrderBy(column string) Option { return func(o *options) { o.orderBy = column } }

// WithPage selects a 1-based page of rows.
func WithPage(page int) Option { return func(o *options) { o.page = page } }

// WithChartParams sets the parameters passed to every chart.
func WithChartParams(params map[string]any) Option {
	return func(o *options) { o.chartParams = params }
}

// WithClock overrides the time source of relative default filters.
func WithClock(clock func() time.Time) Option { return func(o *options) { o.clock = clock } }

// WithLogger sets the logger (default: discard).
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Result holds the output of a successful run.
type Result struct {
	// Output is the rendered report.
	Output []byte

	Ref         string
	Title       string
	Format      string
	ContentType string
	Extension   string

	// TotalRows counts the rows before paging.
	TotalRows int
	Page      int

	// Charts names the charts drawn into the output.
	Charts []string
}

// ReportInfo describes a defined report.
type ReportInfo struct {
	Ref         string
	Namespace   string
	Slug        string
	Name        string
	Description string
	Formats     []string
	DateField   string
}

// Run executes the report addressed by ref ("namespace/slug") and renders
// it.
func Run(ctx context.Context, ref string, opts ...Option) (*Result, error) {
	if ref == "" {
		return nil, errors.New("report reference must not be empty")
	}

	o := applyOptions(opts)

	c, err := o.catalog()
	if err != nil {
		return nil, err
	}

	r, err := c.Lookup(ref)
	if err != nil {
		return nil, err
	}

	name := strings.ToLower(o.format)
	if name == "" {
		name = "csv"
	}

	of, ok := r.OutputFormat(name)
	f, isFormat := of.(output.Format)

	if !ok || !isFormat {
		return nil, fmt.Errorf("%w: %s does not offer %q", ErrUnsupportedFormat, r.Ref(), name)
	}

	ctx = logging.NewContext(ctx, o.logger)

	out, err := output.Render(ctx, r, report.Request{Data: o.filters, OrderBy: o.orderBy, Page: o.page}, f, o.chartParams)
	if err != nil {
		return nil, err
	}

	charts := make([]string, len(out.Charts))
	for i, d := range out.Charts {
		charts[i] = d.Name
	}

	return &Result{
		Output:      out.Data,
		Ref:         r.Ref(),
		Title:       r.VerboseName(),
		Format:      f.Name(),
		ContentType: f.ContentType(),
		Extension:   f.Extension(),
		TotalRows:   out.Result.TotalRows,
		Page:        out.Result.Page,
		Charts:      charts,
	}, nil
}

// List returns the defined reports sorted by namespace and name.
func List(_ context.Context, opts ...Option) ([]ReportInfo, error) {
	o := applyOptions(opts)

	c, err := o.catalog()
	if err != nil {
		return nil, err
	}

	reports := c.List()
	out := make([]ReportInfo, len(reports))

	for i, r := range reports {
		formats := make([]string, 0, len(r.OutputFormats()))
		for _, f := range r.OutputFormats() {
			formats = append(formats, f.Name())
		}

		out[i] = ReportInfo{
			Ref:         r.Ref(),
			Namespace:   r.Namespace(),
			Slug:        r.Slug(),
			Name:        r.VerboseName(),
			Description: r.Description(),
			Formats:     formats,
			DateField:   r.DateField(),
		}
	}

	return out, nil
}

func applyOptions(opts []Option) *options {
	o := &options{logger: logging.Discard()}
	for _, fn := range opts {
		fn(o)
	}

	return o
}

// catalog loads every configured definition.
func (o *options) catalog() (*catalog.Catalog, error) {
	if len(o.definitions) == 0 && len(o.documents) == 0 {
		return nil, errors.New("no report definitions: use WithDefinitions or WithDefinitionData")
	}

	env := catalog.Env{
		Clock:   o.clock,
		Version: version.GetInfo().Semver(),
		Logger:  o.logger,
	}

	if o.db != nil {
		dialect, err := database.DialectFor(o.driver)
		if err != nil {
			return nil, err
		}

		env.DB = o.db
		env.Dialect = dialect
	}

	loader := catalog.NewLoader(env)

	var reports []*report.Report

	if len(o.definitions) > 0 {
		rs, err := loader.LoadPaths(o.definitions...)
		if err != nil {
			return nil, err
		}

		reports = append(reports, rs...)
	}

	for _, d := range o.documents {
		rs, err := loader.Load(d.name, d.data)
		if err != nil {
			return nil, err
		}

		reports = append(reports, rs...)
	}

	c := catalog.New()
	if err := c.Register(reports...); err != nil {
		return nil, err
	}

	return c, nil
}
