package cli

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/watch"
)

type watchOptions struct {
	renderOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [namespace/slug]",
		Short: "Reload report definitions on change",
		Long: `Watch monitors the definition files and directories for changes and
reloads the report catalog after each burst of edits, printing the reports
added, removed or whose columns changed.

When a report is named it is rendered after every reload, to --output or
to stdout. A definition that fails to load is reported and the previous
catalog stays in place.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeReportRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}

			return runWatch(cmd.Context(), cmd, ref, opts)
		},
	}

	registerRunFlags(cmd, &opts.runOptions)

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file path for the named report (default: stdout)")
	f.DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, ref string, opts *watchOptions) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var (
		mu    sync.Mutex
		prev  []*report.Report
		first = true
	)

	// Debounced reloads run on timer goroutines and must not overlap.
	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		mu.Lock()
		defer mu.Unlock()

		if !first {
			if err := s.reload(); err != nil {
				return nil, err
			}
		}

		first = false

		curr := s.catalog.List()
		result := &watch.RunResult{Reports: len(curr)}

		if prev != nil {
			result.Changes = watch.CatalogDiff(prev, curr)
		}

		prev = curr

		if ref == "" {
			return result, nil
		}

		data, err := s.render(fnCtx, ref, &opts.runOptions)
		if err != nil {
			return nil, err
		}

		if err := output.Destination(opts.output, cmd.OutOrStdout(), s.logger).Write(data); err != nil {
			return nil, err
		}

		result.OutputPath = opts.output

		return result, nil
	}

	wopts := watch.DefaultOptions()
	wopts.Paths = s.cfg.Definitions
	wopts.Debounce = opts.debounce
	wopts.Logger = s.logger
	wopts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, wopts, runFn)
}
