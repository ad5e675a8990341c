package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reportengine/internal/form"
)

// ---------------------------------------------------------------------------
// Schema normalization
// ---------------------------------------------------------------------------

func TestDataType_UnmarshalText(t *testing.T) {
	var c Column
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","type":"datetime"}`), &c))
	assert.Equal(t, TypeDateTime, c.Type)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"a"}`), &c))

	err := json.Unmarshal([]byte(`{"id":"a","type":"money"}`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid column type "money"`)
}

func TestNew_ColumnsDerivedFromLabels(t *testing.T) {
	r, err := New(Definition{Labels: []string{"name", "age"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, r.Labels())
	assert.Equal(t, []Column{{ID: "name"}, {ID: "age"}}, r.Columns())
}

func TestNew_LabelsDerivedFromColumns(t *testing.T) {
	r, err := New(Definition{Columns: []Column{
		{ID: "name", Type: TypeString, Label: "Name"},
		{ID: "total", Type: TypeNumber},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "total"}, r.Labels())

	for i, c := range r.Columns() {
		assert.Equal(t, r.Labels()[i], c.ID)
	}
}

func TestNew_NoSchema(t *testing.T) {
	_, err := New(Definition{})
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestNew_BothAuthored(t *testing.T) {
	_, err := New(Definition{
		Labels:  []string{"a", "b"},
		Columns: []Column{{ID: "a"}, {ID: "b"}},
	})
	require.NoError(t, err)

	_, err = New(Definition{
		Labels:  []string{"a", "c"},
		Columns: []Column{{ID: "a"}, {ID: "b"}},
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestNew_DuplicateLabel(t *testing.T) {
	_, err := New(Definition{Labels: []string{"a", "a"}})
	assert.ErrorIs(t, err, ErrDuplicateLabel)
}

func TestNew_InvalidColumnType(t *testing.T) {
	_, err := New(Definition{Columns: []Column{{ID: "a", Type: "money"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type")
}

func TestNew_Defaults(t *testing.T) {
	csv := &fakeFormat{name: "csv"}

	r, err := New(Definition{Labels: []string{"a"}}, WithDefaultOutputFormats(csv))
	require.NoError(t, err)

	assert.Equal(t, DefaultNamespace, r.Namespace())
	assert.Equal(t, DefaultSlug, r.Slug())
	assert.Equal(t, DefaultVerboseName, r.VerboseName())
	assert.Equal(t, DefaultPerPage, r.PerPage())
	assert.True(t, r.CanShowAll())
	assert.False(t, r.AllowUnspecifiedFilters())
	assert.Equal(t, "Default/base", r.Ref())
	assert.Equal(t, []OutputFormat{csv}, r.OutputFormats())

	f, ok := r.OutputFormat("csv")
	require.True(t, ok)
	assert.Same(t, csv, f)
}

func TestNew_ChartIndexOutOfRange(t *testing.T) {
	_, err := New(Definition{
		Labels: []string{"a", "b"},
		Charts: []ChartGroup{{Charts: []Chart{&fakeChart{name: "bar"}}, Columns: []int{2}}},
	})
	assert.ErrorIs(t, err, ErrColumnIndex)
}

func TestNew_DoesNotAliasDefinition(t *testing.T) {
	labels := []string{"a", "b"}

	r, err := New(Definition{Labels: labels})
	require.NoError(t, err)

	labels[0] = "changed"
	got := r.Labels()
	got[1] = "changed"

	assert.Equal(t, []string{"a", "b"}, r.Labels())
}

func TestNew_BindsSchema(t *testing.T) {
	src := &bindingSource{}

	r, err := New(Definition{Labels: []string{"x", "y"}, Source: src})
	require.NoError(t, err)

	bound, ok := r.Source().(*bindingSource)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, bound.labels)
	assert.Nil(t, src.labels, "binding must not modify the declared source")
}

// ---------------------------------------------------------------------------
// Rows
// ---------------------------------------------------------------------------

func TestRows_NoSource(t *testing.T) {
	r := MustNew(Definition{Labels: []string{"a"}})

	_, err := r.Rows(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestRows_SourceFunc(t *testing.T) {
	var gotFilters Filters
	var gotOrder string

	r := MustNew(Definition{
		Labels: []string{"a"},
		Source: SourceFunc(func(_ context.Context, filters Filters, orderBy string) (*RowSet, error) {
			gotFilters, gotOrder = filters, orderBy
			return &RowSet{Rows: SliceRows([]Row{{1}, {2}}), Aggregates: []Aggregate{{Name: "total", Value: 2}}}, nil
		}),
	})

	rs, err := r.Rows(context.Background(), Filters{"a": 1}, "-a")
	require.NoError(t, err)
	assert.Equal(t, Filters{"a": 1}, gotFilters)
	assert.Equal(t, "-a", gotOrder)

	rows, err := CollectRows(rs.Rows)
	require.NoError(t, err)
	assert.Equal(t, []Row{{1}, {2}}, rows)

	total, ok := rs.Aggregate("total")
	require.True(t, ok)
	assert.Equal(t, 2, total)
}

func TestRows_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("boom")

	r := MustNew(Definition{
		Labels: []string{"a"},
		Source: SourceFunc(func(context.Context, Filters, string) (*RowSet, error) { return nil, boom }),
	})

	_, err := r.Rows(context.Background(), nil, "")
	assert.ErrorIs(t, err, boom)
}

func TestStaticSource_Match(t *testing.T) {
	src := StaticSource{
		Data: []Row{{"a", 1}, {"b", 2}, {"a", 3}},
		Match: func(row Row, f Filters) bool {
			want, ok := f["name"]
			return !ok || row[0] == want
		},
	}

	rs, err := src.Fetch(context.Background(), Filters{"name": "a"}, "")
	require.NoError(t, err)

	rows, err := CollectRows(rs.Rows)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"a", 1}, {"a", 3}}, rows)
}

// ---------------------------------------------------------------------------
// Filter form
// ---------------------------------------------------------------------------

func TestFilterForm_BaseHasNoFields(t *testing.T) {
	r := MustNew(Definition{Labels: []string{"a"}})

	f := r.FilterForm(url.Values{"x": {"1"}})
	assert.Empty(t, f.Names())
	assert.True(t, f.IsValid())
}

func TestFilterForm_DelegatesToSource(t *testing.T) {
	r := MustNew(Definition{Labels: []string{"a"}, Source: formSource{}})

	f := r.FilterForm(url.Values{"age": {"x"}})
	assert.Equal(t, []string{"age"}, f.Names())
	assert.False(t, f.IsValid())
	assert.Contains(t, f.Errors(), "age")
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeChart struct {
	name       string
	gotSchema  []Column
	gotData    []Row
	gotParams  map[string]any
	drawResult any
}

func (c *fakeChart) Name() string { return c.name }

func (c *fakeChart) Draw(schema []Column, data []Row, params map[string]any) (any, error) {
	c.gotSchema, c.gotData, c.gotParams = schema, data, params
	return c.drawResult, nil
}

type fakeFormat struct {
	name  string
	embed func(Chart) bool
}

func (f *fakeFormat) Name() string { return f.name }

func (f *fakeFormat) CanEmbed(c Chart) bool {
	if f.embed == nil {
		return true
	}

	return f.embed(c)
}

type bindingSource struct {
	labels []string
}

func (s *bindingSource) BindSchema(labels []string) Source {
	return &bindingSource{labels: labels}
}

func (s *bindingSource) Fetch(context.Context, Filters, string) (*RowSet, error) {
	return &RowSet{Rows: SliceRows(nil)}, nil
}

type formSource struct{}

func (formSource) Fetch(context.Context, Filters, string) (*RowSet, error) {
	return &RowSet{Rows: SliceRows([]Row{{1}})}, nil
}

func (formSource) FilterForm(data url.Values) *form.Form {
	f := form.New(data)
	f.Add("age", form.Integer{Base: form.Base{Text: "Age"}})
	f.FullClean()

	return f
}
