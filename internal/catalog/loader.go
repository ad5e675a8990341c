package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/reportengine/internal/chart"
	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/filtercontrol"
	"github.com/hupe1980/reportengine/internal/form"
	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/queryset"
	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/sqlreport"
	"github.com/hupe1980/reportengine/internal/yamlutil"
)

// ErrIncompatible is returned when a definition's requires constraint
// rejects the running version.
var ErrIncompatible = errors.New("catalog: incompatible definition")

// Env is what definitions are built against.
type Env struct {
	// DB backs sql, date-sql and model sources. Nil is allowed; such
	// reports fail when run.
	DB      database.Queryer
	Dialect database.Dialect

	// Store resolves model query sets. Defaults to a TableStore over DB.
	Store queryset.Store

	Controls *filtercontrol.Registry
	Formats  *output.Registry

	// Clock drives {today: N} masks and date-sql defaults. Defaults to
	// time.Now.
	Clock func() time.Time

	// Version is checked against requires constraints. Empty or "dev"
	// skips the check.
	Version string

	Logger *slog.Logger

	// Adjust, when set, may edit each decoded definition before it is
	// built. Returning false drops the definition.
	Adjust func(ref string, spec *DefinitionSpec) bool
}

// Loader builds reports from YAML definitions.
type Loader struct {
	env Env
}

// NewLoader creates a loader, filling Env defaults.
func NewLoader(env Env) *Loader {
	if env.Controls == nil {
		env.Controls = filtercontrol.DefaultRegistry()
	}

	if env.Formats == nil {
		env.Formats = output.DefaultRegistry()
	}

	if env.Clock == nil {
		env.Clock = time.Now
	}

	if env.Store == nil {
		env.Store = queryset.TableStore{DB: env.DB, Dialect: env.Dialect}
	}

	if env.Logger == nil {
		env.Logger = slog.Default()
	}

	return &Loader{env: env}
}

// DefinitionFiles expands paths into YAML files: files are kept as given,
// directories contribute their *.yaml and *.yml entries sorted by name.
func DefinitionFiles(paths ...string) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading definitions: %w", err)
		}

		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading definitions directory %s: %w", p, err)
		}

		var found []string

		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}

		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}

// LoadPaths loads every definition under paths.
func (l *Loader) LoadPaths(paths ...string) ([]*report.Report, error) {
	files, err := DefinitionFiles(paths...)
	if err != nil {
		return nil, err
	}

	var out []*report.Report

	for _, f := range files {
		rs, err := l.LoadFile(f)
		if err != nil {
			return nil, err
		}

		out = append(out, rs...)
	}

	return out, nil
}

// LoadFile loads a single, possibly multi-document, definition file.
func (l *Loader) LoadFile(path string) ([]*report.Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // definition paths come from configuration
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}

	return l.Load(path, data)
}

// Load builds the reports of every document in data. name is used in
// error messages.
func (l *Loader) Load(name string, data []byte) ([]*report.Report, error) {
	docs := yamlutil.SplitDocuments(data)
	out := make([]*report.Report, 0, len(docs))

	for _, doc := range docs {
		var spec DefinitionSpec

		dec := yaml.NewDecoder(bytes.NewReader(doc.Data))
		dec.KnownFields(true)

		if err := dec.Decode(&spec); err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}

			return nil, fmt.Errorf("%s:%d: decoding definition: %w", name, doc.Line, err)
		}

		if l.env.Adjust != nil && !l.env.Adjust(spec.Ref(), &spec) {
			l.env.Logger.Debug("report definition skipped",
				slog.String("file", name),
				slog.String("report", spec.Ref()),
			)

			continue
		}

		r, err := l.Build(spec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, doc.Line, err)
		}

		l.env.Logger.Debug("report definition loaded",
			slog.String("file", name),
			slog.String("report", r.Ref()),
		)

		out = append(out, r)
	}

	return out, nil
}

// Build turns a decoded definition into a report.
func (l *Loader) Build(spec DefinitionSpec) (*report.Report, error) {
	if err := checkRequires(spec.Requires, l.env.Version); err != nil {
		return nil, fmt.Errorf("report %q: %w", spec.Slug, err)
	}

	if spec.Slug == "" {
		return nil, errors.New("definition has no slug")
	}

	def := report.Definition{
		Namespace:               spec.Namespace,
		Slug:                    spec.Slug,
		VerboseName:             spec.Name,
		Description:             spec.Description,
		Labels:                  spec.Labels,
		Columns:                 spec.Columns,
		PerPage:                 spec.PerPage,
		CanShowAll:              spec.CanShowAll,
		AllowUnspecifiedFilters: spec.AllowUnspecifiedFilters,
		DateField:               spec.DateField,
		DefaultMask:             l.mask(spec.Mask),
	}

	src, err := l.source(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("report %q: %w", spec.Slug, err)
	}

	def.Source = src

	if spec.Source.Type == SourceDateSQL {
		def = sqlreport.DateDefinition(def, l.env.Clock)
	}

	if len(spec.Formats) > 0 {
		for _, name := range spec.Formats {
			f, err := l.env.Formats.Format(name)
			if err != nil {
				return nil, fmt.Errorf("report %q: %w", spec.Slug, err)
			}

			def.OutputFormats = append(def.OutputFormats, f)
		}
	}

	for i, cs := range spec.Charts {
		c, err := chart.New(chart.Kind(cs.Kind), cs.Title)
		if err != nil {
			return nil, fmt.Errorf("report %q: chart %d: %w", spec.Slug, i, err)
		}

		g := report.ChartGroup{Charts: []report.Chart{c}, Columns: cs.Columns}
		if len(cs.Formats) > 0 {
			g.Formats = report.FormatIsOneOf(cs.Formats...)
		}

		def.Charts = append(def.Charts, g)
	}

	return report.New(def, report.WithDefaultOutputFormats(output.AsOutputFormats(output.DefaultFormats())...))
}

func (l *Loader) source(spec SourceSpec) (report.Source, error) {
	switch spec.Type {
	case SourceSQL:
		return sqlreport.New(l.sqlConfig(spec))
	case SourceDateSQL:
		return sqlreport.NewDate(l.sqlConfig(spec))
	case SourceModel:
		if spec.Model == nil {
			return nil, errors.New("model source needs a model")
		}

		model, err := buildModel(spec.Model, 0)
		if err != nil {
			return nil, err
		}

		filters := make([]queryset.ListFilter, len(spec.ListFilter))
		for i, lf := range spec.ListFilter {
			filters[i] = queryset.Lookup(lf)
		}

		return queryset.NewModelSource(l.env.Store, model, queryset.Options{ListFilter: filters, Registry: l.env.Controls})
	case SourceStatic:
		rows := make([]report.Row, len(spec.Rows))
		for i, r := range spec.Rows {
			rows[i] = report.Row(r)
		}

		return report.StaticSource{Data: rows}, nil
	case "":
		return nil, errors.New("source type is required")
	default:
		return nil, fmt.Errorf("unknown source type %q: must be one of %s, %s, %s, %s", spec.Type, SourceSQL, SourceDateSQL, SourceModel, SourceStatic)
	}
}

func (l *Loader) sqlConfig(spec SourceSpec) sqlreport.Config {
	return sqlreport.Config{
		DB:           l.env.DB,
		Placeholder:  l.env.Dialect.Placeholder,
		RowsSQL:      spec.RowsSQL,
		AggregateSQL: spec.AggregateSQL,
		Params:       spec.Params,
		Registry:     l.env.Controls,
	}
}

// maxModelDepth bounds nested related models in a definition.
const maxModelDepth = 8

func buildModel(spec *ModelSpec, depth int) (*queryset.Model, error) {
	if depth > maxModelDepth {
		return nil, fmt.Errorf("model %q: relations nest deeper than %d", spec.Name, maxModelDepth)
	}

	if spec.Name == "" {
		return nil, errors.New("model has no name")
	}

	m := &queryset.Model{Name: spec.Name, Table: spec.Table, PrimaryKey: spec.PrimaryKey}

	for _, fs := range spec.Fields {
		f := &queryset.Field{
			Name:    fs.Name,
			Kind:    queryset.Kind(strings.ToLower(fs.Kind)),
			Label:   fs.Label,
			Column:  fs.Column,
			Choices: append([]form.Option(nil), fs.Choices...),
		}

		if fs.Related != nil {
			related, err := buildModel(fs.Related, depth+1)
			if err != nil {
				return nil, fmt.Errorf("model %q field %q: %w", spec.Name, fs.Name, err)
			}

			f.Related = related
		}

		m.Fields = append(m.Fields, f)
	}

	return m, nil
}

// mask converts declared defaults. {today: N} becomes a deferred date.
func (l *Loader) mask(spec map[string]any) report.Mask {
	if len(spec) == 0 {
		return nil
	}

	m := make(report.Mask, len(spec))

	for k, v := range spec {
		offset, ok := todayOffset(v)
		if !ok {
			m[k] = report.Static(v)
			continue
		}

		clock := l.env.Clock
		m[k] = report.Deferred(func() any {
			return clock().AddDate(0, 0, offset).Format(time.DateOnly)
		})
	}

	return m
}

func todayOffset(v any) (int, bool) {
	mv, ok := v.(map[string]any)
	if !ok || len(mv) != 1 {
		return 0, false
	}

	raw, ok := mv["today"]
	if !ok {
		return 0, false
	}

	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}

	return n, true
}

func checkRequires(constraint, version string) error {
	if constraint == "" || version == "" || version == "dev" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", constraint, err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("%w: requires %s, running %s", ErrIncompatible, constraint, version)
	}

	return nil
}

// Catalog loads every definition under paths into a new catalog.
func (l *Loader) Catalog(paths ...string) (*Catalog, error) {
	reports, err := l.LoadPaths(paths...)
	if err != nil {
		return nil, err
	}

	c := New()
	if err := c.Register(reports...); err != nil {
		return nil, err
	}

	return c, nil
}
