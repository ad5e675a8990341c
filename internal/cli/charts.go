package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newChartsCommand() *cobra.Command {
	opts := &runOptions{}

	var params []string

	cmd := &cobra.Command{
		Use:   "charts <namespace/slug>",
		Short: "Draw the charts of a report as JSON",
		Long: `Charts runs a report and prints the chart configurations drawn from its
rows, for the charts the selected output format accepts. --param passes
drawing parameters such as title or colors to every chart.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReportRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drawParams, err := parseParams(params)
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			r, err := s.lookup(args[0])
			if err != nil {
				return err
			}

			f, err := s.format(r, opts.format)
			if err != nil {
				return err
			}

			req, err := opts.request(r, time.Now())
			if err != nil {
				return &ExitError{Code: exitUsage, Err: err}
			}

			req.Format = f

			ctx, cancel := s.withTimeout(cmd.Context())
			defer cancel()

			res, err := r.Run(ctx, req)
			if err != nil {
				return exitCodeFor(err)
			}

			drawn, err := res.DrawCharts(drawParams)
			if err != nil {
				return &ExitError{Code: exitGeneral, Err: fmt.Errorf("drawing charts: %w", err)}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(drawn)
		},
	}

	registerRunFlags(cmd, opts)
	cmd.Flags().StringArrayVar(&params, "param", nil, "chart drawing parameter (key=value), repeatable; colors take a comma-separated list")

	return cmd
}

// parseParams converts key=value drawing parameters. colors is split into
// a list.
func parseParams(pairs []string) (map[string]any, error) {
	data, err := parseFilters(pairs)
	if err != nil || data == nil {
		return nil, err
	}

	params := make(map[string]any, len(data))

	for k, vs := range data {
		v := vs[len(vs)-1]
		if k == "colors" {
			params[k] = splitList(v)
			continue
		}

		params[k] = v
	}

	return params, nil
}
