package queryset

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reportengine/internal/filtercontrol"
	"github.com/hupe1980/reportengine/internal/report"
)

func TestSource_FetchFiltersAndOrders(t *testing.T) {
	order, _, _ := testModels()

	src, err := NewSource(NewMemory(order, testRecords()), Options{})
	require.NoError(t, err)

	bound := src.BindSchema([]string{"id", "status"})

	rs, err := bound.Fetch(context.Background(), report.Filters{"status": "active"}, "-created")
	require.NoError(t, err)

	assert.Equal(t, []report.Row{{3, "active"}, {1, "active"}}, collect(t, rs.Rows))
	assert.Equal(t, []report.Aggregate{{Name: "total", Value: 2}}, rs.Aggregates)

	// Binding returns a copy.
	assert.Empty(t, src.labels)
}

func TestSource_QuerySetUsesSuppliedBase(t *testing.T) {
	order, _, _ := testModels()

	src, err := NewSource(NewMemory(order, testRecords()), Options{})
	require.NoError(t, err)

	explicit := NewMemory(order, testRecords()[:1])

	qs, err := src.QuerySet(context.Background(), report.Filters{"status": "active"}, "", explicit)
	require.NoError(t, err)

	n, err := qs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = src.QuerySet(context.Background(), report.Filters{"nope": 1}, "", nil)
	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestSource_FilterForm(t *testing.T) {
	order, _, _ := testModels()

	src, err := NewSource(NewMemory(order, nil), Options{ListFilter: []ListFilter{
		Lookup("status"),
		Lookup("created"),
		Lookup("customer__name"),
		WithControl(filtercontrol.Boolean{FieldName: "vip"}),
	}})
	require.NoError(t, err)
	require.Len(t, src.Controls(), 4)

	f := src.FilterForm(url.Values{"status": {"active"}, "created__gte": {"2024-03-01"}})

	assert.Equal(t, []string{"status", "created__gte", "created__lt", "customer__name", "vip"}, f.Names())
	assert.True(t, f.IsValid())
	assert.Equal(t, "active", f.CleanedData()["status"])

	bad := src.FilterForm(url.Values{"status": {"pending"}})
	assert.False(t, bad.IsValid())
	assert.Contains(t, bad.Errors(), "status")
}

func TestSource_ListFilterErrors(t *testing.T) {
	order, _, _ := testModels()

	_, err := NewSource(NewMemory(order, nil), Options{ListFilter: []ListFilter{Lookup("missing")}})
	require.ErrorIs(t, err, ErrFieldNotFound)

	odd := &Model{Name: "odd", Fields: []*Field{{Name: "blob", Kind: "binary"}}}

	_, err = NewSource(NewMemory(odd, nil), Options{ListFilter: []ListFilter{Lookup("blob")}})
	require.ErrorIs(t, err, filtercontrol.ErrUnsupportedField)

	_, err = NewSource(nil, Options{})
	require.Error(t, err)
}

func TestModelSource_ResolvesFromStore(t *testing.T) {
	order, _, _ := testModels()

	store := NewMemoryStore()

	src, err := NewModelSource(store, order, Options{})
	require.NoError(t, err)

	// Records inserted after construction are visible to later fetches.
	store.Insert("order", testRecords()...)

	rs, err := src.BindSchema([]string{"id"}).Fetch(context.Background(), nil, "id")
	require.NoError(t, err)
	assert.Equal(t, []report.Row{{1}, {2}, {3}}, collect(t, rs.Rows))

	v, ok := rs.Aggregate("total")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

type failingStore struct{ err error }

func (s failingStore) All(context.Context, *Model) (QuerySet, error) { return nil, s.err }

func TestModelSource_StoreError(t *testing.T) {
	order, _, _ := testModels()
	boom := errors.New("store down")

	src, err := NewModelSource(failingStore{err: boom}, order, Options{})
	require.NoError(t, err)

	_, err = src.Fetch(context.Background(), nil, "")
	require.ErrorIs(t, err, boom)
}

func TestSource_InReport(t *testing.T) {
	order, _, _ := testModels()

	src, err := NewSource(NewMemory(order, testRecords()), Options{ListFilter: []ListFilter{Lookup("status")}})
	require.NoError(t, err)

	r, err := report.New(report.Definition{
		Namespace: "sales",
		Slug:      "orders",
		Labels:    []string{"id", "amount"},
		Source:    src,
	})
	require.NoError(t, err)

	res, err := r.Run(context.Background(), report.Request{
		Data:    url.Values{"status": {"closed"}},
		OrderBy: "id",
	})
	require.NoError(t, err)

	assert.Equal(t, []report.Row{{2, 99.0}}, res.Rows)
	assert.Equal(t, []report.Aggregate{{Name: "total", Value: 1}}, res.Aggregates)
}
