package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/market"
)

func TestRunBatchKeepsOrderAndErrors(t *testing.T) {
	runner := newRunner(ledger.Config{InitialCash: 1000})

	jobs := []Job{
		{Name: "up", Frame: bars(t, []float64{100, 110}, []float64{1, -1}), Runner: runner},
		{Name: "broken", Frame: bars(t, []float64{100, 110}, nil), Runner: runner},
		{Name: "flat", Frame: bars(t, []float64{100, 100}, []float64{0, 0}), Runner: runner},
		{Name: "orphan", Frame: bars(t, []float64{100}, []float64{0})},
	}

	var done []string
	results, err := RunBatch(context.Background(), jobs, 2, func(r BatchResult) {
		done = append(done, r.Job)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.ElementsMatch(t, []string{"up", "broken", "flat", "orphan"}, done)

	assert.Equal(t, "up", results[0].Job)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Report.TotalTrades)

	assert.ErrorIs(t, results[1].Err, ErrMissingSignal)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 1000.0, results[2].Report.FinalCapital)

	assert.Error(t, results[3].Err)
}

func TestRunBatchIndependentLedgers(t *testing.T) {
	runner := newRunner(ledger.Config{InitialCash: 1000})

	var jobs []Job
	for i := 0; i < 8; i++ {
		jobs = append(jobs, Job{
			Name:   "job",
			Frame:  bars(t, []float64{100, 120}, []float64{1, -1}),
			Runner: runner,
		})
	}

	results, err := RunBatch(context.Background(), jobs, 0, nil)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.InDelta(t, 1000+9.5*20, r.Report.FinalCapital, 1e-9)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{Name: "a", Frame: market.FromCloses(t0, []float64{1}), Runner: newRunner(ledger.DefaultConfig())}}
	results, err := RunBatch(ctx, jobs, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
