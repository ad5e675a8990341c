package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reportengine/internal/docs"
	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/report"
)

type docsOptions struct {
	format          string
	title           string
	includeExamples bool
	outputFile      string
}

func newDocsCommand() *cobra.Command {
	opts := &docsOptions{}

	cmd := &cobra.Command{
		Use:   "docs [namespace]",
		Short: "Generate a reference of the loaded reports",
		Long: `Generate human-readable reference documentation of the report catalog.

Every report is described with its columns, the filters it accepts with
their defaults, the formats it offers and its charts, optionally followed
by an example run invocation. Pass a namespace to document only its
reports.

Supports markdown, HTML, and ASCIIDoc output formats.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := ""
			if len(args) == 1 {
				namespace = args[0]
			}

			return runDocs(cmd, namespace, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "output format (markdown, html, asciidoc)")
	cmd.Flags().StringVar(&opts.title, "title", "", "override document title")
	cmd.Flags().BoolVar(&opts.includeExamples, "include-examples", true, "include an example invocation per report")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runDocs(cmd *cobra.Command, namespace string, opts *docsOptions) error {
	formatter, err := docs.NewFormatter(opts.format)
	if err != nil {
		return &ExitError{Code: exitUsage, Err: err}
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var reports []*report.Report

	for _, r := range s.catalog.List() {
		if namespace == "" || r.Namespace() == namespace {
			reports = append(reports, r)
		}
	}

	if namespace != "" && len(reports) == 0 {
		return &ExitError{Code: exitNotFound, Err: fmt.Errorf("no reports in namespace %q", namespace)}
	}

	model, err := docs.FromReports(reports)
	if err != nil {
		return &ExitError{Code: exitGeneral, Err: err}
	}

	model.Title = opts.title
	model.IncludeExamples = opts.includeExamples

	var buf bytes.Buffer
	if err := formatter.Format(&buf, model); err != nil {
		return &ExitError{Code: exitGeneral, Err: fmt.Errorf("formatting docs: %w", err)}
	}

	if err := output.Destination(opts.outputFile, cmd.OutOrStdout(), s.logger).Write(buf.Bytes()); err != nil {
		return &ExitError{Code: exitWrite, Err: err}
	}

	return nil
}
