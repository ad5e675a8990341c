package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reportengine/internal/docs"
)

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func TestListCommand_Table(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "REPORT")
	assert.Contains(t, stdout, "sales/totals")
	assert.Contains(t, stdout, "sales/orders")
	assert.Contains(t, stdout, "ops/uptime")
	assert.Contains(t, stdout, "admin,csv,json")

	assert.Less(t, strings.Index(stdout, "ops/uptime"), strings.Index(stdout, "sales/orders"), "namespaces sort first")
}

func TestListCommand_JSON(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "list", "sales", "--json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "sales/orders", entries[0].Ref)
	assert.Equal(t, "Orders", entries[0].Name)
	assert.Equal(t, "sales/totals", entries[1].Ref)
	assert.Equal(t, []string{"admin", "csv", "json"}, entries[1].Formats)
}

func TestListCommand_UnknownNamespace(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "list", "hr")
	requireExitCode(t, err, 4)
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func TestRunCommand_CSV(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "run", "sales/totals", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", stdout)
}

func TestRunCommand_FormatIsCaseInsensitive(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "run", "sales/totals", "--format", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", stdout)
}

func TestRunCommand_OutputFile(t *testing.T) {
	dir := writeDefinitions(t)
	out := filepath.Join(t.TempDir(), "nested", "totals.csv")

	stdout, _, err := executeCommand("-d", dir, "-q", "run", "sales/totals", "-f", "csv", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", string(data))
}

func TestRunCommand_UnknownReport(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "sales/missing")
	requireExitCode(t, err, 4)
}

func TestRunCommand_UnavailableFormat(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "sales/totals", "-f", "parquet")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "does not offer format")
	assert.Contains(t, err.Error(), "admin, csv, json")
}

func TestRunCommand_InvalidFilterValue(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "sales/orders", "-f", "csv", "--filter", "qty__gte=abc")
	requireExitCode(t, err, 3)
	assert.Contains(t, err.Error(), "qty__gte")
}

func TestRunCommand_FilterSyntax(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "sales/totals", "--filter", "novalue")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestRunCommand_DateWithoutPeriod(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "ops/uptime", "--date", "2024-03-01")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), "--date requires --period")
}

func TestRunCommand_PeriodWithoutDateField(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "run", "sales/totals", "--period", "week")
	requireExitCode(t, err, 2)
}

func TestRunCommand_RequiresOneReport(t *testing.T) {
	_, _, err := executeCommand("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

// ---------------------------------------------------------------------------
// filters
// ---------------------------------------------------------------------------

func TestFiltersCommand_Table(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "filters", "sales/orders")
	require.NoError(t, err)

	assert.Contains(t, stdout, "FILTER")
	assert.Contains(t, stdout, "qty__gte")
	assert.Contains(t, stdout, "qty__lte")
	assert.Contains(t, stdout, "integer")
}

func TestFiltersCommand_NoFilters(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "filters", "sales/totals")
	require.NoError(t, err)
	assert.Equal(t, "sales/totals has no filters.\n", stdout)
}

func TestFiltersCommand_JSON(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "filters", "sales/orders", "--json")
	require.NoError(t, err)

	var entries []docs.FilterInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "qty__gte", entries[0].Name)
	assert.Equal(t, "integer", entries[0].Type)
}

// ---------------------------------------------------------------------------
// charts
// ---------------------------------------------------------------------------

func TestChartsCommand(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "charts", "sales/totals", "-f", "admin", "--param", "colors=red,blue")
	require.NoError(t, err)

	var drawn []struct {
		Name  string         `json:"name"`
		Chart map[string]any `json:"chart"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &drawn))
	require.Len(t, drawn, 1)

	assert.Equal(t, "bar", drawn[0].Chart["chartType"])
	assert.Equal(t, []any{"red"}, drawn[0].Chart["colors"], "one series takes the first color")
}

func TestChartsCommand_NonEmbeddingFormat(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "charts", "sales/totals", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"title=Sales", "colors=a, b,,c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Sales", "colors": []string{"a", "b", "c"}}, params)

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = parseParams([]string{"=x"})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// diff
// ---------------------------------------------------------------------------

func TestDiffCommand_Lifecycle(t *testing.T) {
	dir := writeDefinitions(t)
	baselines := t.TempDir()

	// No baselines yet.
	stdout, _, err := executeCommand("-d", dir, "diff", "sales/totals", "-f", "csv", "--baselines", baselines)
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "no baseline")

	// Record them.
	stdout, _, err = executeCommand("-d", dir, "diff", "sales/totals", "-f", "csv", "--baselines", baselines, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "updated")

	data, err := os.ReadFile(filepath.Join(baselines, "sales", "totals.csv"))
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", string(data))

	// Unchanged.
	stdout, _, err = executeCommand("-d", dir, "diff", "sales/totals", "-f", "csv", "--baselines", baselines)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 report(s) match their baselines.")

	// Changed rendering.
	require.NoError(t, os.WriteFile(filepath.Join(baselines, "sales", "totals.csv"), []byte("k,v\na,1\nb,3\n"), 0o600))

	stdout, _, err = executeCommand("--no-color", "-d", dir, "diff", "sales/totals", "-f", "csv", "--baselines", baselines)
	requireExitCode(t, err, 8)
	assert.Contains(t, stdout, "-b,3")
	assert.Contains(t, stdout, "+b,2")
}

func TestDiffCommand_RequiresReports(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "diff")
	requireExitCode(t, err, 2)
}

func TestDiffCommand_UnknownReport(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "diff", "sales/missing", "--baselines", t.TempDir())
	requireExitCode(t, err, 4)
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func TestWatchCommand_InitialRunThenShutdown(t *testing.T) {
	dir := writeDefinitions(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"-d", dir, "watch", "sales/totals", "-f", "csv"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Equal(t, "k,v\na,1\nb,2\n", outBuf.String())
	assert.Contains(t, errBuf.String(), "watching "+dir)
	assert.Contains(t, errBuf.String(), "shutting down watcher")
}

// ---------------------------------------------------------------------------
// docs
// ---------------------------------------------------------------------------

func TestDocsCommand_Markdown(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("-d", dir, "docs", "sales", "--title", "Sales")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Sales")
	assert.Contains(t, stdout, "## Totals")
	assert.Contains(t, stdout, "## Orders")
	assert.Contains(t, stdout, "`qty__gte`")
	assert.Contains(t, stdout, "reportengine run sales/orders")
	assert.NotContains(t, stdout, "ops/uptime")
}

func TestDocsCommand_OutputFile(t *testing.T) {
	dir := writeDefinitions(t)
	out := filepath.Join(t.TempDir(), "reports.html")

	_, _, err := executeCommand("-d", dir, "docs", "-f", "html", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
	assert.Contains(t, string(data), "ops/uptime")
}

func TestDocsCommand_Errors(t *testing.T) {
	dir := writeDefinitions(t)

	_, _, err := executeCommand("-d", dir, "docs", "-f", "pdf")
	requireExitCode(t, err, 2)

	_, _, err = executeCommand("-d", dir, "docs", "hr")
	requireExitCode(t, err, 4)
}

// ---------------------------------------------------------------------------
// config overrides
// ---------------------------------------------------------------------------

func TestOverrides_DisableAndFormats(t *testing.T) {
	dir := writeDefinitions(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := `reports:
  sales/orders:
    disabled: true
  sales/totals:
    formats: [csv]
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	stdout, _, err := executeCommand("--config", cfgPath, "-d", dir, "list", "sales", "--json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "sales/totals", entries[0].Ref)
	assert.Equal(t, []string{"csv"}, entries[0].Formats)
}

// ---------------------------------------------------------------------------
// flag helpers
// ---------------------------------------------------------------------------

func TestParseFilters(t *testing.T) {
	data, err := parseFilters([]string{"a=1", "a=2", " b =x=y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, data["a"])
	assert.Equal(t, "x=y", data.Get("b"))

	data, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSessionFormat_DefaultFromConfig(t *testing.T) {
	dir := writeDefinitions(t)
	t.Setenv("REPORTENGINE_DEFAULT_FORMAT", "csv")

	stdout, _, err := executeCommand("-d", dir, "run", "sales/totals")
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", stdout)
}

// ---------------------------------------------------------------------------
// Shell completion
// ---------------------------------------------------------------------------

func TestCompletion_ReportRefs(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("__complete", "run", "-d", dir, "sales/")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sales/orders\tOrders\n")
	assert.Contains(t, stdout, "sales/totals\tTotals\n")
	assert.NotContains(t, stdout, "ops/uptime")
	assert.Contains(t, stdout, ":4\n", "file completion must be off")

	for _, sub := range []string{"filters", "charts", "watch", "diff"} {
		stdout, _, err = executeCommand("__complete", sub, "-d", dir, "ops")
		require.NoError(t, err, sub)
		assert.Contains(t, stdout, "ops/uptime\tUptime\n", sub)
	}
}

func TestCompletion_ReportRefsLimits(t *testing.T) {
	dir := writeDefinitions(t)

	stdout, _, err := executeCommand("__complete", "run", "-d", dir, "sales/totals", "")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "sales/")

	stdout, _, err = executeCommand("__complete", "diff", "-d", dir, "sales/totals", "sales/")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sales/orders")
	assert.NotContains(t, stdout, "sales/totals")

	stdout, _, err = executeCommand("__complete", "run", "")
	require.NoError(t, err)
	assert.Contains(t, stdout, ":1\n", "missing definitions report a completion error")
}
