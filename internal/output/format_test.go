package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/reportengine/internal/report"
)

func sampleTable() *Table {
	return &Table{
		Ref:   "sales/daily",
		Title: "Daily sales",
		Columns: []report.Column{
			{ID: "day", Type: report.TypeDate, Label: "Day"},
			{ID: "orders", Type: report.TypeNumber},
			{ID: "revenue", Type: report.TypeNumber, Label: "Revenue"},
			{ID: "paid", Type: report.TypeBoolean},
			{ID: "region", Type: report.TypeString},
		},
		Rows: []report.Row{
			{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), int64(3), 10.5, true, "north"},
			{time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), int64(5), nil, false, nil},
		},
		Aggregates: []report.Aggregate{{Name: "total", Value: 2}},
		Charts:     []report.DrawnChart{{Name: "Orders", Object: map[string]any{"chartType": "bar"}}},
		Filters:    report.Filters{"day__gte": "2024-03-01"},
		TotalRows:  2,
	}
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func TestConverterFor(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 30, 5, 0, time.UTC)

	assert.Equal(t, "2024-03-01", ConverterFor(report.TypeDate)(ts))
	assert.Equal(t, "2024-03-01 14:30:05", ConverterFor(report.TypeDateTime)(ts))
	assert.Equal(t, "14:30:05", ConverterFor(report.TypeTimeOfDay)(ts))
	assert.Equal(t, "2024-03-01", ConverterFor(report.TypeDate)("2024-03-01"))
	assert.Equal(t, "42", ConverterFor(report.TypeNumber)(int64(42)))
	assert.Equal(t, "10.25", ConverterFor(report.TypeNumber)(10.25))
	assert.Equal(t, "7", ConverterFor(report.TypeNumber)("7"))
	assert.Equal(t, "yes", ConverterFor(report.TypeBoolean)(true))
	assert.Equal(t, "no", ConverterFor(report.TypeBoolean)("false"))
	assert.Equal(t, "", ConverterFor(report.TypeString)(nil))
	assert.Equal(t, "abc", ConverterFor(report.TypeString)([]byte("abc")))
}

func TestCellValue(t *testing.T) {
	row := report.Row{"1.5", "true", "x", nil}

	assert.Equal(t, 1.5, cellValue(report.TypeNumber, row, 0, "1.5"))
	assert.Equal(t, true, cellValue(report.TypeBoolean, row, 1, "yes"))
	assert.Equal(t, "x", cellValue(report.TypeString, row, 2, "x"))
	assert.Nil(t, cellValue(report.TypeString, row, 3, ""))
	assert.Nil(t, cellValue(report.TypeString, row, 9, ""))
}

// ---------------------------------------------------------------------------
// Formats
// ---------------------------------------------------------------------------

func TestAdmin_Render(t *testing.T) {
	out, err := RenderBytes(Admin(), sampleTable())
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "Daily sales\n===========\n")
	assert.Contains(t, s, "Filters: day__gte=2024-03-01")
	assert.Contains(t, s, "DAY         ORDERS  REVENUE  PAID  REGION")
	assert.Contains(t, s, "2024-03-01  3       10.5     yes   north")
	assert.Contains(t, s, "2 rows")
	assert.Contains(t, s, "total: 2")
	assert.Contains(t, s, "Chart: Orders\n{\"chartType\":\"bar\"}")
}

func TestAdmin_PageSummary(t *testing.T) {
	tbl := sampleTable()
	tbl.Page = 1
	tbl.TotalRows = 10

	assert.Equal(t, "2 of 10 rows (page 1)", pageSummary(tbl))
}

func TestCSV_Render(t *testing.T) {
	out, err := RenderBytes(CSV(), sampleTable())
	require.NoError(t, err)

	assert.Equal(t, "Day,orders,Revenue,paid,region\n2024-03-01,3,10.5,yes,north\n2024-03-02,5,,no,\n", string(out))
}

func TestJSON_Render(t *testing.T) {
	out, err := RenderBytes(JSON(), sampleTable())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "sales/daily", doc["report"])
	assert.EqualValues(t, 2, doc["totalRows"])

	rows := doc["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "north", rows[0].(map[string]any)["region"])
	assert.Len(t, doc["charts"], 1)
}

func TestYAML_Render(t *testing.T) {
	out, err := RenderBytes(YAML(), sampleTable())
	require.NoError(t, err)
	assert.Contains(t, string(out), "report: sales/daily")

	var doc Document
	require.NoError(t, sigsyaml.Unmarshal(out, &doc))
	assert.Equal(t, 2, doc.TotalRows)
	assert.Len(t, doc.Rows, 2)
}

func TestParquet_Render(t *testing.T) {
	out, err := RenderBytes(Parquet(), sampleTable())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	mem := memory.NewGoAllocator()

	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(out),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	require.NoError(t, err)
	defer tbl.Release()

	assert.EqualValues(t, 2, tbl.NumRows())
	assert.EqualValues(t, 5, tbl.NumCols())
	assert.Equal(t, "revenue", tbl.Schema().Field(2).Name)
}

func TestParquet_BadValue(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = []report.Row{{"not a date", 1, 1.0, true, "x"}}

	_, err := RenderBytes(Parquet(), tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "day"`)
}

func TestNewTable(t *testing.T) {
	r := report.MustNew(report.Definition{Namespace: "sales", Slug: "daily", VerboseName: "Daily", Labels: []string{"a"}})

	tbl := NewTable(&report.Result{Report: r, Schema: r.Columns(), Rows: []report.Row{{1}}, TotalRows: 1}, nil)
	assert.Equal(t, "sales/daily", tbl.Ref)
	assert.Equal(t, "Daily", tbl.Title)
	assert.Len(t, tbl.Rows, 1)
}

func TestExecute(t *testing.T) {
	r := report.MustNew(report.Definition{
		Slug:   "static",
		Labels: []string{"k", "v"},
		Source: report.StaticSource{Data: []report.Row{{"a", 1}, {"b", 2}}},
	})

	out, err := Execute(context.Background(), r, report.Request{}, CSV(), nil)
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\n", string(out))

	_, err = Execute(context.Background(), report.MustNew(report.Definition{Labels: []string{"x"}}), report.Request{}, CSV(), nil)
	require.ErrorIs(t, err, report.ErrNotImplemented)
}

func TestRender(t *testing.T) {
	r := report.MustNew(report.Definition{
		Slug:   "static",
		Labels: []string{"k", "v"},
		Source: report.StaticSource{Data: []report.Row{{"a", 1}, {"b", 2}, {"c", 3}}},
	})

	out, err := Render(context.Background(), r, report.Request{}, CSV(), nil)
	require.NoError(t, err)
	assert.Equal(t, "k,v\na,1\nb,2\nc,3\n", string(out.Data))
	assert.Equal(t, 3, out.Result.TotalRows)
	assert.Empty(t, out.Charts)
}
