package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/logging"
	"github.com/hupe1980/reportengine/internal/output"
)

type renderOptions struct {
	runOptions

	output string
}

func newRunCommand() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "run <namespace/slug>",
		Short: "Run a report and render it",
		Long: `Run executes a report and writes the rendered result to stdout or,
with --output, to a file.

Filters are passed as repeated --filter key=value flags and validated
against the report's filter form. Values not given fall back to the
report's default mask. --period restricts a report with a date field to
the day, week, month or year containing --date.

Exit codes:
  0  Success
  1  Error
  2  Invalid arguments or configuration
  3  Invalid filter values
  4  Report not found
  6  Output could not be written`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReportRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd, args[0], opts)
		},
	}

	registerRunFlags(cmd, &opts.runOptions)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")

	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, ref string, opts *renderOptions) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	data, err := s.render(ctx, ref, &opts.runOptions)
	if err != nil {
		return err
	}

	if err := output.Destination(opts.output, cmd.OutOrStdout(), s.logger).Write(data); err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	return nil
}

// render runs ref with opts and returns the rendered bytes.
func (s *session) render(ctx context.Context, ref string, opts *runOptions) ([]byte, error) {
	r, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}

	f, err := s.format(r, opts.format)
	if err != nil {
		return nil, err
	}

	req, err := opts.request(r, time.Now())
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Err: err}
	}

	ctx, logger := logging.WithAttrs(ctx, slog.String("report", r.Ref()), slog.String("format", f.Name()))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()

	data, err := output.Execute(ctx, r, req, f, nil)
	if err != nil {
		return nil, exitCodeFor(err)
	}

	logger.Info("report rendered",
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return data, nil
}
