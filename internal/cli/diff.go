package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/report"
	"github.com/hupe1980/reportengine/internal/snapshot"
)

type diffOptions struct {
	runOptions

	baselines string
	all       bool
	update    bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [namespace/slug...]",
		Short: "Compare report renderings against stored baselines",
		Long: `Diff renders reports and compares the output line by line against the
baselines stored under --baselines, printing a unified diff for every
report that changed. --update stores the current renderings as the new
baselines instead.

Exit codes:
  0  No differences
  1  Error
  2  Invalid arguments
  4  Report not found
  6  Baseline could not be written
  8  Differences detected`,
		ValidArgsFunction: completeReportRefs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.all {
				return &ExitError{Code: exitUsage, Err: errors.New("name the reports to compare or pass --all")}
			}

			return runDiff(cmd.Context(), cmd, args, opts)
		},
	}

	registerRunFlags(cmd, &opts.runOptions)

	f := cmd.Flags()
	f.StringVar(&opts.baselines, "baselines", "", "baseline directory (default: the configured baselines)")
	f.BoolVar(&opts.all, "all", false, "compare every loaded report")
	f.BoolVar(&opts.update, "update", false, "write the current renderings as baselines")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, refs []string, opts *diffOptions) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	reports, err := s.selectReports(refs, opts.all)
	if err != nil {
		return err
	}

	dir := opts.baselines
	if dir == "" {
		dir = s.cfg.Baselines
	}

	store := snapshot.Store{Dir: dir, Logger: s.logger}
	w := cmd.OutOrStdout()
	changed := 0

	for _, r := range reports {
		f, err := s.format(r, opts.format)
		if err != nil {
			return err
		}

		req, err := opts.request(r, time.Now())
		if err != nil {
			return &ExitError{Code: exitUsage, Err: err}
		}

		runCtx, cancel := s.withTimeout(ctx)
		cmp, err := store.Compare(runCtx, r, req, f)
		cancel()

		if err != nil && !errors.Is(err, snapshot.ErrNoBaseline) {
			return exitCodeFor(err)
		}

		if opts.update {
			if cmp.Diff.HasDifferences {
				if err := store.Save(r, f, cmp.Current); err != nil {
					return &ExitError{Code: exitWrite, Err: err}
				}

				_, _ = fmt.Fprintf(w, "updated %s\n", store.Path(r, f))
			}

			continue
		}

		if !cmp.Diff.HasDifferences {
			continue
		}

		changed++

		if err != nil {
			_, _ = fmt.Fprintf(w, "%s: no baseline at %s (run with --update to create it)\n", r.Ref(), store.Path(r, f))
			continue
		}

		snapshot.WriteDiff(w, cmp.Diff, !s.cfg.NoColor)
	}

	if changed > 0 {
		return &ExitError{Code: exitDiff, Err: fmt.Errorf("%d of %d report(s) differ from their baselines", changed, len(reports))}
	}

	if !opts.update && !s.cfg.Quiet {
		_, _ = fmt.Fprintf(w, "%d report(s) match their baselines.\n", len(reports))
	}

	return nil
}

// selectReports resolves refs, or every report when all is set.
func (s *session) selectReports(refs []string, all bool) ([]*report.Report, error) {
	if all {
		return s.catalog.List(), nil
	}

	out := make([]*report.Report, 0, len(refs))

	for _, ref := range refs {
		r, err := s.lookup(ref)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}
