package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/report"
)

type listEntry struct {
	Ref         string   `json:"ref"`
	Namespace   string   `json:"namespace"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Formats     []string `json:"formats"`
	DateField   string   `json:"dateField,omitempty"`
}

func newListCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [namespace]",
		Short: "List the available reports",
		Long: `List prints every loaded report sorted by namespace and name. Pass a
namespace to list only its reports.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			var entries []listEntry

			for _, r := range s.catalog.List() {
				if len(args) == 1 && r.Namespace() != args[0] {
					continue
				}

				entries = append(entries, newListEntry(r))
			}

			if len(args) == 1 && len(entries) == 0 {
				return &ExitError{Code: exitNotFound, Err: fmt.Errorf("no reports in namespace %q", args[0])}
			}

			w := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")

				return enc.Encode(entries)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "REPORT\tNAME\tFORMATS")

			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Ref, e.Name, strings.Join(e.Formats, ","))
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the report list as JSON")

	return cmd
}

func newListEntry(r *report.Report) listEntry {
	formats := make([]string, 0, len(r.OutputFormats()))
	for _, f := range r.OutputFormats() {
		formats = append(formats, f.Name())
	}

	return listEntry{
		Ref:         r.Ref(),
		Namespace:   r.Namespace(),
		Slug:        r.Slug(),
		Name:        r.VerboseName(),
		Description: r.Description(),
		Formats:     formats,
		DateField:   r.DateField(),
	}
}
