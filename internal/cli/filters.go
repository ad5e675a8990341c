package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/docs"
)

func newFiltersCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "filters <namespace/slug>",
		Short: "Describe the filters a report accepts",
		Long: `Filters prints the filter form of a report: every field name accepted
by --filter, its type, and the default value from the report's mask.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReportRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			r, err := s.lookup(args[0])
			if err != nil {
				return err
			}

			entries, err := docs.Filters(r)
			if err != nil {
				return &ExitError{Code: exitGeneral, Err: err}
			}

			w := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")

				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				_, err := fmt.Fprintf(w, "%s has no filters.\n", r.Ref())
				return err
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "FILTER\tLABEL\tTYPE\tDEFAULT\tCHOICES")

			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Label, e.Type, e.DefaultString(), e.ChoiceList())
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the filters as JSON")

	return cmd
}
