package docs

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter renders a DocModel to a writer.
type Formatter interface {
	Format(w io.Writer, model *DocModel) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "asciidoc", "adoc":
		return &AsciiDocFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported docs format: %s", format)
	}
}

func titleOf(model *DocModel) string {
	if model.Title != "" {
		return model.Title
	}

	return "Report Reference"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

// MarkdownFormatter renders documentation as Markdown.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "# %s\n\n", titleOf(model))

	if len(model.Reports) == 0 {
		fmt.Fprintln(w, "No reports are defined.")
		return nil
	}

	// Index.
	for _, r := range model.Reports {
		fmt.Fprintf(w, "- [%s](#%s) `%s`\n", orDash(r.Name), anchor(r.Ref), r.Ref)
	}

	fmt.Fprintln(w)

	for _, r := range model.Reports {
		fmt.Fprintf(w, "<a id=\"%s\"></a>\n## %s\n\n", anchor(r.Ref), orDash(r.Name))
		fmt.Fprintf(w, "**Report:** `%s`  \n", r.Ref)
		fmt.Fprintf(w, "**Formats:** %s  \n", strings.Join(r.Formats, ", "))

		if r.DateField != "" {
			fmt.Fprintf(w, "**Date field:** `%s`  \n", r.DateField)
		}

		if len(r.Charts) > 0 {
			fmt.Fprintf(w, "**Charts:** %s  \n", strings.Join(r.Charts, ", "))
		}

		fmt.Fprintln(w)

		if r.Description != "" {
			fmt.Fprintf(w, "%s\n\n", r.Description)
		}

		if len(r.Columns) > 0 {
			fmt.Fprintf(w, "### Columns\n\n")
			fmt.Fprintln(w, "| Column | Label | Type |")
			fmt.Fprintln(w, "|--------|-------|------|")

			for _, c := range r.Columns {
				fmt.Fprintf(w, "| `%s` | %s | `%s` |\n", c.ID, c.Label, c.Type)
			}

			fmt.Fprintln(w)
		}

		if len(r.Filters) > 0 {
			fmt.Fprintf(w, "### Filters\n\n")

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

			fmt.Fprintln(tw, "| Filter\t| Label\t| Type\t| Default\t| Choices\t|")
			fmt.Fprintln(tw, "|--------\t|-------\t|------\t|---------\t|---------\t|")

			for _, fi := range r.Filters {
				fmt.Fprintf(tw, "| `%s`\t| %s\t| `%s`\t| %s\t| %s\t|\n",
					fi.Name, fi.Label, fi.Type, fi.DefaultString(), orDash(fi.ChoiceList()))
			}

			tw.Flush()

			fmt.Fprintln(w)
		}

		if model.IncludeExamples {
			fmt.Fprintf(w, "### Example\n\n```sh\n%s```\n\n", ExampleCommand(r))
		}
	}

	return nil
}

// anchor derives a fragment id from a report reference.
func anchor(ref string) string {
	return strings.ToLower(strings.NewReplacer("/", "-", " ", "-", "_", "-").Replace(ref))
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

// HTMLFormatter renders documentation as a standalone HTML page.
type HTMLFormatter struct{}

var htmlTpl = template.Must(template.New("docs").Funcs(template.FuncMap{
	"join":    strings.Join,
	"anchor":  anchor,
	"orDash":  orDash,
	"example": ExampleCommand,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;line-height:1.6}
table{border-collapse:collapse;width:100%;margin-bottom:1em}
th,td{border:1px solid #ddd;padding:8px;text-align:left}
th{background:#f5f5f5}
code{background:#f0f0f0;padding:2px 4px;border-radius:3px}
pre{background:#f5f5f5;padding:1em;border-radius:4px;overflow-x:auto}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if not .Reports}}<p>No reports are defined.</p>{{end}}
{{if .Reports}}<ul>
{{range .Reports}}<li><a href="#{{anchor .Ref}}">{{orDash .Name}}</a> <code>{{.Ref}}</code></li>
{{end}}</ul>{{end}}
{{range .Reports}}
<h2 id="{{anchor .Ref}}">{{orDash .Name}}</h2>
<p><strong>Report:</strong> <code>{{.Ref}}</code></p>
<p><strong>Formats:</strong> {{join .Formats ", "}}</p>
{{if .DateField}}<p><strong>Date field:</strong> <code>{{.DateField}}</code></p>{{end}}
{{if .Charts}}<p><strong>Charts:</strong> {{join .Charts ", "}}</p>{{end}}
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Columns}}
<h3>Columns</h3>
<table>
<tr><th>Column</th><th>Label</th><th>Type</th></tr>
{{range .Columns}}<tr><td><code>{{.ID}}</code></td><td>{{.Label}}</td><td><code>{{.Type}}</code></td></tr>
{{end}}
</table>
{{end}}
{{if .Filters}}
<h3>Filters</h3>
<table>
<tr><th>Filter</th><th>Label</th><th>Type</th><th>Default</th><th>Choices</th></tr>
{{range .Filters}}<tr><td><code>{{.Name}}</code></td><td>{{.Label}}</td><td><code>{{.Type}}</code></td><td>{{.DefaultString}}</td><td>{{orDash .ChoiceList}}</td></tr>
{{end}}
</table>
{{end}}
{{if $.IncludeExamples}}
<h3>Example</h3>
<pre><code>{{example .}}</code></pre>
{{end}}
{{end}}
</body>
</html>
`))

func (f *HTMLFormatter) Format(w io.Writer, model *DocModel) error {
	m := *model
	m.Title = titleOf(model)

	return htmlTpl.Execute(w, m)
}

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

// AsciiDocFormatter renders documentation as AsciiDoc.
type AsciiDocFormatter struct{}

func (f *AsciiDocFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "= %s\n\n", titleOf(model))

	if len(model.Reports) == 0 {
		fmt.Fprintln(w, "No reports are defined.")
		return nil
	}

	for _, r := range model.Reports {
		fmt.Fprintf(w, "[[%s]]\n== %s\n\n", anchor(r.Ref), orDash(r.Name))
		fmt.Fprintf(w, "*Report:* `%s` +\n", r.Ref)
		fmt.Fprintf(w, "*Formats:* %s +\n", strings.Join(r.Formats, ", "))

		if r.DateField != "" {
			fmt.Fprintf(w, "*Date field:* `%s` +\n", r.DateField)
		}

		if len(r.Charts) > 0 {
			fmt.Fprintf(w, "*Charts:* %s +\n", strings.Join(r.Charts, ", "))
		}

		fmt.Fprintln(w)

		if r.Description != "" {
			fmt.Fprintf(w, "%s\n\n", r.Description)
		}

		if len(r.Columns) > 0 {
			fmt.Fprintf(w, "=== Columns\n\n")
			fmt.Fprintln(w, "[cols=\"1,2,1\", options=\"header\"]")
			fmt.Fprintln(w, "|===")
			fmt.Fprintln(w, "| Column | Label | Type")

			for _, c := range r.Columns {
				fmt.Fprintf(w, "\n| `%s`\n| %s\n| `%s`\n", c.ID, c.Label, c.Type)
			}

			fmt.Fprintln(w, "|===")
			fmt.Fprintln(w)
		}

		if len(r.Filters) > 0 {
			fmt.Fprintf(w, "=== Filters\n\n")
			fmt.Fprintln(w, "[cols=\"1,2,1,1,1\", options=\"header\"]")
			fmt.Fprintln(w, "|===")
			fmt.Fprintln(w, "| Filter | Label | Type | Default | Choices")

			for _, fi := range r.Filters {
				fmt.Fprintf(w, "\n| `%s`\n| %s\n| `%s`\n| %s\n| %s\n",
					fi.Name, fi.Label, fi.Type, fi.DefaultString(), orDash(fi.ChoiceList()))
			}

			fmt.Fprintln(w, "|===")
			fmt.Fprintln(w)
		}

		if model.IncludeExamples {
			fmt.Fprintf(w, "=== Example\n\n[source,sh]\n----\n%s----\n\n", ExampleCommand(r))
		}
	}

	return nil
}
