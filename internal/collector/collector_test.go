package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/metrics"
	"github.com/xtxerr/feedlog/internal/source"
	"github.com/xtxerr/feedlog/internal/storage"
	"github.com/xtxerr/feedlog/internal/table"
)

var at = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	name    string
	table   string
	records []table.Record
	err     error
	panics  bool
	calls   int
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Table() string { return f.table }

func (f *fakeAdapter) Fetch(context.Context) ([]table.Record, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	return f.records, f.err
}

func priceRecords(names ...string) []table.Record {
	var out []table.Record
	for i, n := range names {
		out = append(out, table.Record{
			CollectedAt: at,
			Subject:     table.F("name", table.Text(n)),
			Metrics:     []table.Field{table.F("price", table.Int(int64(i+1)))},
		})
	}
	return out
}

func newRunner(t *testing.T) (*Runner, *storage.Store) {
	t.Helper()
	store := storage.New(t.TempDir())
	r := NewRunner(store, metrics.New())
	r.Now = func() time.Time { return at }
	return r, store
}

func TestRunAllIsolatesFailures(t *testing.T) {
	r, store := newRunner(t)

	prices := &fakeAdapter{name: "prices", table: "crypto_data", records: priceRecords("bitcoin", "ethereum")}
	rankings := &fakeAdapter{name: "rankings", table: "steam_data",
		err: errors.NewUpstream("rankings", "http://x", 0, errors.ErrTimeout)}
	stats := &fakeAdapter{name: "statistics", table: "youtube_data", records: priceRecords("clip")}

	report := r.RunAll(context.Background(), []source.Adapter{prices, rankings, stats})

	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Succeeded())
	assert.False(t, report.OK())
	assert.False(t, report.AllFailed())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "rankings", failures[0].Source)
	assert.Equal(t, StageFetch, failures[0].Stage)
	assert.True(t, errors.IsTimeout(failures[0].Err))

	assert.Equal(t, 2, report.Results[0].RowsAppended)
	assert.Equal(t, 1, report.Results[2].RowsAppended)

	// The failed source's table was never touched.
	_, err := os.Stat(store.Path("steam_data"))
	assert.True(t, os.IsNotExist(err))

	got, err := store.Load("crypto_data")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestRunAllPreservesOrder(t *testing.T) {
	r, _ := newRunner(t)
	var order []string
	adapters := []source.Adapter{}
	for _, n := range []string{"c", "a", "b"} {
		adapters = append(adapters, &orderAdapter{name: n, order: &order})
	}

	report := r.RunAll(context.Background(), adapters)

	assert.Equal(t, []string{"c", "a", "b"}, order)
	for i, n := range []string{"c", "a", "b"} {
		assert.Equal(t, n, report.Results[i].Source)
	}
}

type orderAdapter struct {
	name  string
	order *[]string
}

func (o *orderAdapter) Name() string  { return o.name }
func (o *orderAdapter) Table() string { return o.name }
func (o *orderAdapter) Fetch(context.Context) ([]table.Record, error) {
	*o.order = append(*o.order, o.name)
	return priceRecords(o.name), nil
}

func TestRunAllRecoversPanic(t *testing.T) {
	r, _ := newRunner(t)
	bad := &fakeAdapter{name: "bad", table: "bad", panics: true}
	good := &fakeAdapter{name: "good", table: "good", records: priceRecords("x")}

	report := r.RunAll(context.Background(), []source.Adapter{bad, good})

	require.Len(t, report.Results, 2)
	assert.Error(t, report.Results[0].Err)
	assert.Contains(t, report.Results[0].Err.Error(), "boom")
	assert.Equal(t, "internal", errors.Kind(report.Results[0].Err))
	assert.True(t, report.Results[1].OK())
	assert.Equal(t, 1, good.calls)
}

func TestRunAllAppendFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the data directory should be.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	r := NewRunner(storage.New(blocked), nil)
	a := &fakeAdapter{name: "prices", table: "crypto_data", records: priceRecords("bitcoin")}

	report := r.RunAll(context.Background(), []source.Adapter{a})

	require.True(t, report.AllFailed())
	res := report.Results[0]
	assert.Equal(t, StageAppend, res.Stage)
	assert.True(t, errors.IsPersistence(res.Err))
	assert.Zero(t, res.RowsAppended)
}

func TestRunAllEmpty(t *testing.T) {
	r, _ := newRunner(t)
	report := r.RunAll(context.Background(), nil)

	assert.True(t, report.OK())
	assert.False(t, report.AllFailed())
	assert.Empty(t, report.Results)
}

func TestRunAllReportsAddedColumns(t *testing.T) {
	r, _ := newRunner(t)
	a := &fakeAdapter{name: "prices", table: "crypto_data", records: priceRecords("bitcoin")}
	r.RunAll(context.Background(), []source.Adapter{a})

	a.records = []table.Record{{
		CollectedAt: at,
		Subject:     table.F("name", table.Text("bitcoin")),
		Metrics: []table.Field{
			table.F("price", table.Int(2)),
			table.F("market_cap", table.Int(9)),
		},
	}}
	report := r.RunAll(context.Background(), []source.Adapter{a})

	require.True(t, report.OK())
	assert.Equal(t, []string{"market_cap"}, report.Results[0].ColumnsAdded)
}
