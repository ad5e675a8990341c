// Package cli implements the cobra command tree for reportengine.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/config"
	"github.com/hupe1980/reportengine/internal/logging"
)

// Exit codes returned by Execute.
const (
	exitGeneral  = 1
	exitUsage    = 2
	exitFilters  = 3
	exitNotFound = 4
	exitWrite    = 6
	exitDiff     = 8
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return exitGeneral
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "reportengine",
		Short: "Run declarative reports against SQL databases",
		Long: `reportengine runs reports declared in YAML definition files.

A report pairs a column schema with a data source (a raw SQL query, a
date-scoped SQL query, a relational model or static rows), a filter form
derived from that source, default filter values, and optional charts.
Reports are addressed as namespace/slug and can be rendered as an admin
table, CSV, JSON, YAML, Parquet or, in builds with the xlsx tag, Excel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.Int("definitions", len(cfg.Definitions)),
				slog.Bool("database", cfg.Database.Enabled()),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .reportengine.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringSliceP("definitions", "d", nil, "report definition files or directories")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})

	cmd.AddCommand(
		newListCommand(),
		newRunCommand(),
		newFiltersCommand(),
		newChartsCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newDocsCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}
