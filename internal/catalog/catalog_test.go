package catalog

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reportengine/internal/chart"
	"github.com/hupe1980/reportengine/internal/database"
	"github.com/hupe1980/reportengine/internal/output"
	"github.com/hupe1980/reportengine/internal/queryset"
	"github.com/hupe1980/reportengine/internal/report"
)

func mustReport(t *testing.T, ns, slug, name string) *report.Report {
	t.Helper()

	r, err := report.New(report.Definition{Namespace: ns, Slug: slug, VerboseName: name, Labels: []string{"x"}})
	require.NoError(t, err)

	return r
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestCatalog_RegisterAndGet(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(mustReport(t, "sales", "daily", "Daily")))

	r, err := c.Get("sales", "daily")
	require.NoError(t, err)
	assert.Equal(t, "Daily", r.VerboseName())

	r, err = c.Lookup("sales/daily")
	require.NoError(t, err)
	assert.Equal(t, "sales/daily", r.Ref())

	_, err = c.Get("sales", "weekly")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_LookupDefaultNamespace(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(mustReport(t, "", "base", "")))

	r, err := c.Lookup("base")
	require.NoError(t, err)
	assert.Equal(t, report.DefaultNamespace, r.Namespace())
}

func TestCatalog_Duplicates(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(mustReport(t, "a", "x", "")))

	err := c.Register(mustReport(t, "b", "y", ""), mustReport(t, "a", "x", ""))
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, c.Len(), "failed batches add nothing")

	err = c.Register(mustReport(t, "c", "z", ""), mustReport(t, "c", "z", ""))
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCatalog_ListOrdering(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(
		mustReport(t, "sales", "b", "Weekly"),
		mustReport(t, "ops", "z", "Uptime"),
		mustReport(t, "sales", "a", "Daily"),
	))

	var refs []string
	for _, r := range c.List() {
		refs = append(refs, r.Ref())
	}

	assert.Equal(t, []string{"ops/z", "sales/a", "sales/b"}, refs)
	assert.Equal(t, []string{"ops", "sales"}, c.Namespaces())
}

func TestCatalog_Replace(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(mustReport(t, "a", "x", "")))
	require.NoError(t, c.Replace(mustReport(t, "b", "y", "")))

	_, err := c.Get("a", "x")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, c.Len())

	require.Error(t, c.Replace(mustReport(t, "d", "d", ""), mustReport(t, "d", "d", "")))
	assert.Equal(t, 1, c.Len(), "failed replace keeps the catalog")
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

var fixedClock = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

const bundle = `
namespace: sales
slug: by-status
name: Orders by status
labels: [id, status]
formats: [admin, json]
mask:
  status: active
source:
  type: model
  model:
    name: order
    table: orders
    fields:
      - {name: id, kind: integer}
      - name: status
        kind: char
        choices:
          - {value: active, label: Active}
          - {value: closed, label: Closed}
      - name: customer
        kind: foreignkey
        related:
          name: customer
          fields:
            - {name: name, kind: char}
  list_filter: [status, customer__name]
charts:
  - kind: bar
    title: Orders
    columns: [1, 0]
    formats: [admin]
---
# date scoped
namespace: sales
slug: revenue
columns:
  - {id: date, type: date}
  - {id: revenue, type: number}
source:
  type: date-sql
  rows_sql: SELECT day, SUM(amount) FROM orders WHERE day >= %(date__gte)s AND day < %(date__lt)s GROUP BY day
---
slug: fixed
labels: [k, v]
mask:
  since: {today: -7}
source:
  type: static
  rows:
    - [a, 1]
    - [b, 2]
`

func TestLoader_Load(t *testing.T) {
	store := queryset.NewMemoryStore()
	store.Insert("order",
		queryset.Record{"id": 1, "status": "active", "customer": queryset.Record{"name": "Ann"}},
		queryset.Record{"id": 2, "status": "closed", "customer": queryset.Record{"name": "Ben"}},
	)

	l := NewLoader(Env{Store: store, Clock: fixedClock, Version: "1.0.0"})

	reports, err := l.Load("bundle.yaml", []byte(bundle))
	require.NoError(t, err)
	require.Len(t, reports, 3)

	byStatus := reports[0]
	assert.Equal(t, "sales/by-status", byStatus.Ref())
	assert.Equal(t, "Orders by status", byStatus.VerboseName())
	require.Len(t, byStatus.OutputFormats(), 2)
	assert.Equal(t, "json", byStatus.OutputFormats()[1].Name())

	f := byStatus.FilterForm(nil)
	assert.Equal(t, []string{"status", "customer__name"}, f.Names())

	admin, _ := byStatus.OutputFormat("admin")
	res, err := byStatus.Run(context.Background(), report.Request{Format: admin})
	require.NoError(t, err)
	assert.Equal(t, []report.Row{{1, "active"}}, res.Rows)
	require.Len(t, res.Charts, 1)

	drawn, err := res.DrawCharts(nil)
	require.NoError(t, err)
	cfg := drawn[0].Object.(*chart.Config)
	assert.Equal(t, "status", cfg.XAxis)

	res, err = byStatus.Run(context.Background(), report.Request{Data: url.Values{"customer__name": {"Ben"}, "status": {"closed"}}})
	require.NoError(t, err)
	assert.Equal(t, []report.Row{{2, "closed"}}, res.Rows)

	revenue := reports[1]
	assert.Equal(t, "date", revenue.DateField())
	mask, err := revenue.DefaultMask()
	require.NoError(t, err)
	assert.Equal(t, report.Filters{"date__gte": "2024-02-14", "date__lt": "2024-03-16"}, mask)
	assert.Len(t, revenue.OutputFormats(), len(output.DefaultFormats()))

	fixed := reports[2]
	assert.Equal(t, "Default/fixed", fixed.Ref())
	mask, err = fixed.DefaultMask()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-08", mask["since"])

	res, err = fixed.Run(context.Background(), report.Request{})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

func TestLoader_DateSQLAgainstDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	l := NewLoader(Env{DB: db, Dialect: database.Postgres, Clock: fixedClock})

	reports, err := l.Load("bundle.yaml", []byte(bundle))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT day, SUM(amount) FROM orders WHERE day >= $1 AND day < $2 GROUP BY day").
		WithArgs("2024-02-14", "2024-03-16").
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum"}).AddRow("2024-03-01", 12.5))

	res, err := reports[1].Run(context.Background(), report.Request{})
	require.NoError(t, err)
	assert.Equal(t, []report.Row{{"2024-03-01", 12.5}}, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(Env{Version: "1.2.0"})

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "slug: a\nlables: [x]\nsource: {type: static}\n", "field lables not found"},
		{"no slug", "labels: [x]\nsource: {type: static}\n", "no slug"},
		{"no source type", "slug: a\nlabels: [x]\n", "source type is required"},
		{"bad source type", "slug: a\nlabels: [x]\nsource: {type: graphql}\n", "unknown source type"},
		{"bad format", "slug: a\nlabels: [x]\nformats: [pdf]\nsource: {type: static}\n", "unknown output format"},
		{"bad chart", "slug: a\nlabels: [x, y]\nsource: {type: static}\ncharts: [{kind: radar}]\n", "unknown kind"},
		{"chart column", "slug: a\nlabels: [x, y]\nsource: {type: static}\ncharts: [{kind: bar, columns: [5]}]\n", "column index"},
		{"bad column type", "slug: a\nlabels: [x]\ncolumns: [{id: x, type: money}]\nsource: {type: static}\n", `invalid column type "money"`},
		{"bad param", "slug: a\nlabels: [x]\nsource: {type: sql, params: [{name: p, datatype: blob}]}\n", "unknown datatype"},
		{"model without model", "slug: a\nlabels: [x]\nsource: {type: model}\n", "needs a model"},
		{"bad constraint", "requires: '>>1'\nslug: a\nlabels: [x]\nsource: {type: static}\n", "invalid requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load("defs.yaml", []byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "defs.yaml:1")
		})
	}
}

func TestLoader_Requires(t *testing.T) {
	doc := []byte("requires: '>= 2.0'\nslug: a\nlabels: [x]\nsource: {type: static}\n")

	_, err := NewLoader(Env{Version: "1.4.2"}).Load("d.yaml", doc)
	require.ErrorIs(t, err, ErrIncompatible)

	_, err = NewLoader(Env{Version: "2.1.0"}).Load("d.yaml", doc)
	require.NoError(t, err)

	_, err = NewLoader(Env{Version: "dev"}).Load("d.yaml", doc)
	require.NoError(t, err)
}

func TestLoader_LoadPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("slug: b\nlabels: [x]\nsource: {type: static}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("slug: a\nlabels: [x]\nsource: {type: static}\n---\n# nothing here\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	files, err := DefinitionFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	reports, err := NewLoader(Env{}).LoadPaths(dir)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "a", reports[0].Slug())

	_, err = NewLoader(Env{}).LoadPaths(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestLoader_Adjust(t *testing.T) {
	doc := []byte("namespace: ops\nslug: a\nlabels: [x]\nsource: {type: static}\n---\nnamespace: ops\nslug: b\nlabels: [x]\nsource: {type: static}\n")

	var seen []string

	l := NewLoader(Env{Adjust: func(ref string, spec *DefinitionSpec) bool {
		seen = append(seen, ref)
		spec.PerPage = 5

		return ref != "ops/b"
	}})

	reports, err := l.Load("d.yaml", doc)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"ops/a", "ops/b"}, seen)
	assert.Equal(t, 5, reports[0].PerPage())
}

func TestLoader_Catalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("slug: a\nlabels: [x]\nsource: {type: static}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("slug: a\nlabels: [y]\nsource: {type: static}\n"), 0o600))

	_, err := NewLoader(Env{}).Catalog(dir)
	require.ErrorIs(t, err, ErrDuplicate)

	c, err := NewLoader(Env{}).Catalog(filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}
