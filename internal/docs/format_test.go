package docs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reportengine/internal/docs"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"markdown", "markdown", false},
		{"md", "md", false},
		{"html", "html", false},
		{"asciidoc", "asciidoc", false},
		{"adoc", "adoc", false},
		{"case insensitive", "Markdown", false},
		{"unknown", "pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := docs.NewFormatter(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported docs format")

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func render(t *testing.T, format string, model *docs.DocModel) string {
	t.Helper()

	f, err := docs.NewFormatter(format)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, model))

	return buf.String()
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

func TestMarkdownFormatter(t *testing.T) {
	out := render(t, "markdown", sampleDocModel(t))

	assert.Contains(t, out, "# Report Reference")
	assert.Contains(t, out, "- [Orders](#sales-orders) `sales/orders`")
	assert.Contains(t, out, "## Orders")
	assert.Contains(t, out, "**Formats:** admin, csv")
	assert.Contains(t, out, "**Date field:** `placed`")
	assert.Contains(t, out, "**Charts:** Totals, Trend")
	assert.Contains(t, out, "Orders placed per customer.")
	assert.Contains(t, out, "| `customer` | Customer | `string` |")
	assert.Contains(t, out, "### Filters")
	assert.Contains(t, out, "`qty__gte`")
	assert.NotContains(t, out, "### Example")
}

func TestMarkdownFormatter_CustomTitle(t *testing.T) {
	model := sampleDocModel(t)
	model.Title = "Sales Reports"

	out := render(t, "md", model)
	assert.Contains(t, out, "# Sales Reports")
}

func TestMarkdownFormatter_Empty(t *testing.T) {
	out := render(t, "markdown", &docs.DocModel{})
	assert.Equal(t, "# Report Reference\n\nNo reports are defined.\n", out)
}

func TestMarkdownFormatter_WithExamples(t *testing.T) {
	model := sampleDocModel(t)
	model.IncludeExamples = true

	out := render(t, "markdown", model)
	assert.Contains(t, out, "### Example")
	assert.Contains(t, out, "```sh\nreportengine run sales/orders")
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

func TestHTMLFormatter(t *testing.T) {
	out := render(t, "html", sampleDocModel(t))

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Report Reference</title>")
	assert.Contains(t, out, `<h2 id="sales-orders">Orders</h2>`)
	assert.Contains(t, out, "<code>qty__gte</code>")
	assert.NotContains(t, out, "<h3>Example</h3>")
}

func TestHTMLFormatter_WithExamples(t *testing.T) {
	model := sampleDocModel(t)
	model.IncludeExamples = true

	out := render(t, "html", model)
	assert.Contains(t, out, "<h3>Example</h3>")
	assert.Contains(t, out, "reportengine run sales/orders")
}

func TestHTMLFormatter_Empty(t *testing.T) {
	out := render(t, "html", &docs.DocModel{})
	assert.Contains(t, out, "No reports are defined.")
}

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

func TestAsciiDocFormatter(t *testing.T) {
	out := render(t, "asciidoc", sampleDocModel(t))

	assert.Contains(t, out, "= Report Reference")
	assert.Contains(t, out, "[[sales-orders]]\n== Orders")
	assert.Contains(t, out, "*Formats:* admin, csv +")
	assert.Contains(t, out, "=== Columns")
	assert.Contains(t, out, "=== Filters")
	assert.Contains(t, out, "|===")
}

func TestAsciiDocFormatter_Empty(t *testing.T) {
	out := render(t, "adoc", &docs.DocModel{})
	assert.Equal(t, "= Report Reference\n\nNo reports are defined.\n", out)
}

func TestAsciiDocFormatter_WithExamples(t *testing.T) {
	model := sampleDocModel(t)
	model.IncludeExamples = true

	out := render(t, "adoc", model)
	assert.Contains(t, out, "[source,sh]\n----\nreportengine run sales/orders")
}
