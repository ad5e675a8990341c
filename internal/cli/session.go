package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/hupe1980/reportengine/internal/catalog"
	"github.com/hupe1980/reportengine/internal/config"
	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/logging"
	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/version"
)

// session is the loaded state a command works against.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	formats *output.Registry
	loader  *catalog.Loader
	catalog *catalog.Catalog
	db      *sql.DB
}

// openSession connects the configured database, if any, and loads the
// report definitions.
func openSession(ctx context.Context) (*session, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if len(cfg.Definitions) == 0 {
		return nil, &ExitError{Code: exitUsage, Err: errors.New("no report definitions: pass --definitions or set definitions in the config file")}
	}

	s := &session{cfg: cfg, logger: logger, formats: output.DefaultRegistry()}

	env := catalog.Env{
		Formats: s.formats,
		Version: version.GetInfo().Semver(),
		Logger:  logger,
	}

	overrides, err := loadOverrides(config.ConfigFileFromContext(ctx))
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	if !overrides.IsEmpty() {
		env.Adjust = applyOverrides(overrides)
	}

	if cfg.Database.Enabled() {
		db, dialect, err := database.Open(ctx, database.Options{
			Driver:       cfg.Database.Driver,
			DSN:          cfg.Database.DSN,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			Logger:       logger,
		})
		if err != nil {
			return nil, &ExitError{Code: exitGeneral, Err: err}
		}

		s.db = db
		env.DB = db
		env.Dialect = dialect
	}

	s.loader = catalog.NewLoader(env)

	if err := s.reload(); err != nil {
		_ = s.Close()
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	return s, nil
}

// reload rebuilds the catalog from the definition files.
func (s *session) reload() error {
	c, err := s.loader.Catalog(s.cfg.Definitions...)
	if err != nil {
		return err
	}

	s.catalog = c

	s.logger.Debug("report definitions loaded",
		slog.Int("reports", c.Len()),
		slog.Int("namespaces", len(c.Namespaces())),
	)

	return nil
}

// Close releases the database connection.
func (s *session) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// lookup resolves a report reference, mapping unknown reports to exit
// code 4.
func (s *session) lookup(ref string) (*report.Report, error) {
	r, err := s.catalog.Lookup(ref)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, &ExitError{Code: exitNotFound, Err: err}
	}

	return r, err
}

// format resolves a format the report offers, falling back to the
// configured default.
func (s *session) format(r *report.Report, name string) (output.Format, error) {
	if name == "" {
		name = s.cfg.DefaultFormat
	}

	name = strings.ToLower(name)

	if f, ok := r.OutputFormat(name); ok {
		if of, ok := f.(output.Format); ok {
			return of, nil
		}
	}

	names := make([]string, 0, len(r.OutputFormats()))
	for _, f := range r.OutputFormats() {
		names = append(names, f.Name())
	}

	sort.Strings(names)

	return nil, &ExitError{
		Code: exitUsage,
		Err:  fmt.Errorf("report %s does not offer format %q (available: %s)", r.Ref(), name, strings.Join(names, ", ")),
	}
}

// withTimeout bounds ctx by the configured query timeout.
func (s *session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func loadOverrides(path string) (*config.Overrides, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the resolved config file
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return config.ParseOverrides(data)
}

// applyOverrides adjusts definitions from the config file's reports
// section.
func applyOverrides(o *config.Overrides) func(string, *catalog.DefinitionSpec) bool {
	return func(ref string, spec *catalog.DefinitionSpec) bool {
		ov, ok := o.For(ref)
		if !ok {
			return true
		}

		if ov.Disabled {
			return false
		}

		if ov.PerPage > 0 {
			spec.PerPage = ov.PerPage
		}

		if len(ov.Formats) > 0 {
			spec.Formats = append([]string(nil), ov.Formats...)
		}

		if len(ov.Mask) > 0 {
			mask := make(map[string]any, len(spec.Mask)+len(ov.Mask))
			for k, v := range spec.Mask {
				mask[k] = v
			}

			for k, v := range ov.Mask {
				mask[k] = v
			}

			spec.Mask = mask
		}

		return true
	}
}

// exitCodeFor maps run failures to exit codes.
func exitCodeFor(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var formErr *report.FormError
	if errors.As(err, &formErr) {
		return &ExitError{Code: exitFilters, Err: err}
	}

	return &ExitError{Code: exitGeneral, Err: err}
}
