package journal

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, table := range []string{"runs", "trades", "orders", "equity"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLitePersistAndQuery(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	rep := sampleReport(t)

	_, err := Persist(j, rep, "sample.csv", []byte("asset: TEST\n"))
	require.NoError(t, err)

	run, err := j.GetRun(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.Strategy, run.Strategy)
	assert.Equal(t, "sample.csv", run.Dataset)
	assert.Equal(t, []byte("asset: TEST\n"), run.Config)
	assert.Equal(t, 5, run.Bars)
	assert.True(t, run.Start.Equal(t0))
	assert.True(t, run.End.Equal(t0.AddDate(0, 0, 4)))
	assert.InDelta(t, rep.FinalCapital, run.FinalCapital, 1e-9)
	assert.InDelta(t, rep.ProfitFactor, run.ProfitFactor, 1e-9)
	assert.Equal(t, 2, run.Trades)

	trades, err := j.ListTrades(rep.RunID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].CloseTime.Before(trades[1].CloseTime))
	assert.InDelta(t, rep.Trades[0].PnL, trades[0].PnL, 1e-9)

	one, err := j.GetTrade(trades[1].TradeID)
	require.NoError(t, err)
	assert.Equal(t, trades[1].TradeID, one.TradeID)
	assert.Equal(t, rep.RunID, one.RunID)

	orders, err := j.ListOrders(rep.RunID)
	require.NoError(t, err)
	assert.Len(t, orders, len(rep.Orders))

	equity, err := j.ListEquity(rep.RunID)
	require.NoError(t, err)
	require.Len(t, equity, 5)
	for i, e := range equity {
		assert.InDelta(t, rep.EquityCurve[i].Equity, e.Equity, 1e-9)
		assert.InDelta(t, rep.EquityCurve[i].Cash, e.Cash, 1e-9)
	}
}

func TestSQLiteInfiniteProfitFactor(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	require.NoError(t, j.RecordRun(RunRecord{
		RunID:        "R1",
		Created:      time.Now(),
		Strategy:     "buy-and-hold",
		Asset:        "TEST",
		Start:        t0,
		End:          t0,
		ProfitFactor: math.Inf(1),
	}))

	run, err := j.GetRun("R1")
	require.NoError(t, err)
	assert.True(t, math.IsInf(run.ProfitFactor, 1))
}

func TestSQLiteNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	_, err := j.GetRun("missing")
	assert.ErrorContains(t, err, "not found")

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteListRunsLimit(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, j.RecordRun(RunRecord{
			RunID:   id,
			Created: t0.Add(time.Duration(i) * time.Hour),
			Start:   t0,
			End:     t0,
		}))
	}

	all, err := j.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].RunID)

	two, err := j.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestSQLiteEquityBatchChunks(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	n := equityChunk*2 + 7
	snaps := make([]EquitySnapshot, n)
	for i := range snaps {
		snaps[i] = EquitySnapshot{RunID: "R", Time: t0.Add(time.Duration(i) * time.Minute), Cash: 1, Equity: float64(i)}
	}
	require.NoError(t, j.RecordEquityBatch(snaps))
	require.NoError(t, j.RecordEquityBatch(nil))

	got, err := j.ListEquity("R")
	require.NoError(t, err)
	require.Len(t, got, n)
	assert.Equal(t, float64(n-1), got[n-1].Equity)
}
