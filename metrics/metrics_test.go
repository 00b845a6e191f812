package metrics

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/ledger"
)

var t0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func curve(equity ...float64) []ledger.EquityPoint {
	out := make([]ledger.EquityPoint, len(equity))
	for i, e := range equity {
		out[i] = ledger.EquityPoint{Time: t0.AddDate(0, 0, i), Cash: e, Equity: e}
	}
	return out
}

func trades(pnls ...float64) []ledger.Trade {
	out := make([]ledger.Trade, len(pnls))
	for i, p := range pnls {
		out[i] = ledger.Trade{
			ID:        string(rune('a' + i)),
			Asset:     "ASSET",
			Direction: ledger.Long,
			Quantity:  1,
			EntryTime: t0.AddDate(0, 0, i),
			ExitTime:  t0.AddDate(0, 0, i+1),
			Duration:  24 * time.Hour,
			PnL:       p,
		}
	}
	return out
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	dd, pct := MaxDrawdown([]float64{10000, 11000, 9000, 9500})
	assert.InDelta(t, 2000.0, dd, 1e-9)
	assert.InDelta(t, 18.1818, pct, 1e-3)

	dd, pct = MaxDrawdown([]float64{100, 110, 120})
	assert.Equal(t, 0.0, dd)
	assert.Equal(t, 0.0, pct)

	dd, pct = MaxDrawdown(nil)
	assert.Equal(t, 0.0, dd)
	assert.Equal(t, 0.0, pct)

	// The larger currency fall wins even when a smaller one was deeper in
	// percent.
	dd, pct = MaxDrawdown([]float64{100, 50, 1000, 800})
	assert.Equal(t, 200.0, dd)
	assert.InDelta(t, 20.0, pct, 1e-9)
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()

	equity := []float64{100, 110, 99, 108.9}
	// returns: 0.1, -0.1, 0.1
	mean := 0.1 / 3
	std := math.Sqrt((2*math.Pow(0.1-mean, 2) + math.Pow(-0.1-mean, 2)) / 2)
	want := mean / std * math.Sqrt(252)
	assert.InDelta(t, want, SharpeRatio(equity, 0, 252), 1e-9)

	// 12% a year over monthly periods is 1% per period.
	withRF := (mean - 0.01) / std * math.Sqrt(12)
	assert.InDelta(t, withRF, SharpeRatio(equity, 0.12, 12), 1e-9)

	assert.Equal(t, 0.0, SharpeRatio([]float64{100}, 0, 252))
	assert.Equal(t, 0.0, SharpeRatio([]float64{100, 110}, 0, 252))
	assert.Equal(t, 0.0, SharpeRatio([]float64{100, 100, 100}, 0, 252))
	assert.InDelta(t, want, SharpeRatio(equity, 0, 0), 1e-9)
}

func TestReturnsSkipsZeroEquity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{-1, 0, 0.5}, Returns([]float64{10, 0, 10, 15}))
	assert.Nil(t, Returns([]float64{1}))
}

func TestProfitFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, ProfitFactor(100, -50))
	assert.True(t, math.IsInf(ProfitFactor(100, 0), 1))
	assert.True(t, math.IsInf(ProfitFactor(0, 0), 1))
	assert.Equal(t, 0.0, ProfitFactor(0, -10))
}

func TestCalculateWithoutTrades(t *testing.T) {
	t.Parallel()

	c := curve(10000, 10000, 10000)
	r := Calculate(nil, c, 10000, 0, DefaultOptions())

	assert.Equal(t, 0, r.TotalTrades)
	assert.Equal(t, 0.0, r.TotalPnL)
	assert.Equal(t, 0.0, r.WinRate)
	assert.Equal(t, 0.0, r.SharpeRatio)
	assert.Equal(t, 0.0, r.MaxDrawdown)
	assert.Equal(t, 0.0, r.ProfitFactor)
	assert.Equal(t, 10000.0, r.InitialCapital)
	assert.Equal(t, 10000.0, r.FinalCapital)
	assert.Equal(t, 0.0, r.TotalCommission)
	assert.Empty(t, r.Trades)
	assert.Len(t, r.EquityCurve, 3)
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tr := trades(200, -50, 0, 100)
	c := curve(10000, 10200, 10150, 10150, 10250)
	r := Calculate(tr, c, 10000, 12.5, DefaultOptions())

	assert.Equal(t, 4, r.TotalTrades)
	assert.Equal(t, 2, r.WinningTrades)
	// Break-even trades count as losers.
	assert.Equal(t, 2, r.LosingTrades)
	assert.Equal(t, r.TotalTrades, r.WinningTrades+r.LosingTrades)
	assert.InDelta(t, 50.0, r.WinRate, 1e-9)
	assert.InDelta(t, 250.0, r.TotalPnL, 1e-9)
	assert.InDelta(t, 150.0, r.AverageWin, 1e-9)
	assert.InDelta(t, -25.0, r.AverageLoss, 1e-9)
	assert.InDelta(t, 6.0, r.ProfitFactor, 1e-9)
	assert.Equal(t, 10250.0, r.FinalCapital)
	assert.InDelta(t, 2.5, r.TotalReturnPercent, 1e-9)
	assert.Equal(t, 12.5, r.TotalCommission)
	assert.InDelta(t, 50.0, r.MaxDrawdown, 1e-9)
	assert.InDelta(t, 50.0/10200*100, r.MaxDrawdownPercent, 1e-9)
	assert.Greater(t, r.SharpeRatio, 0.0)
	assert.Len(t, r.Trades, 4)
}

func TestCalculateWinRateInvariant(t *testing.T) {
	t.Parallel()

	for _, pnls := range [][]float64{{1}, {-1}, {1, -1, 2}, {0, 0}, {5, 5, 5, -1, -1}} {
		r := Calculate(trades(pnls...), curve(100, 101), 100, 0, DefaultOptions())
		assert.Equal(t, r.TotalTrades, r.WinningTrades+r.LosingTrades)
		assert.InDelta(t, float64(r.WinningTrades)/float64(r.TotalTrades)*100, r.WinRate, 1e-9)
	}
}

func TestCalculateAllWinners(t *testing.T) {
	t.Parallel()

	r := Calculate(trades(10, 20), curve(100, 110, 130), 100, 0, DefaultOptions())
	assert.True(t, math.IsInf(r.ProfitFactor, 1))
	assert.Equal(t, 0.0, r.AverageLoss)
	assert.Equal(t, 100.0, r.WinRate)
}

func TestCalculateBreakEvenTrades(t *testing.T) {
	t.Parallel()

	r := Calculate(trades(0, 0, 0), curve(100, 100, 100), 100, 0, DefaultOptions())
	assert.True(t, math.IsInf(r.ProfitFactor, 1))
	assert.Equal(t, 3, r.LosingTrades)
	assert.Equal(t, 0, r.WinningTrades)
	assert.Equal(t, 0.0, r.WinRate)
}

func TestWriteAndReadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "result.yaml")
	r := Calculate(trades(10, 20), curve(100, 110, 130), 100, 1.5, DefaultOptions())
	require.NoError(t, WriteYAML(path, r))

	got, err := ReadYAML(path)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.ProfitFactor, 1))
	assert.Equal(t, r.TotalTrades, got.TotalTrades)
	assert.Equal(t, r.FinalCapital, got.FinalCapital)
	require.Len(t, got.Trades, 2)
	assert.Equal(t, 24*time.Hour, got.Trades[0].Duration)
	assert.True(t, got.EquityCurve[1].Time.Equal(t0.AddDate(0, 0, 1)))

	_, err = ReadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	r := Calculate(trades(200, -50), curve(10000, 10200, 10150), 10000, 3.25, DefaultOptions())

	var buf bytes.Buffer
	PrintSummary(&buf, Header{RunID: "run-1", Strategy: "sma(20)", Asset: "BTC", Start: t0, End: t0.AddDate(0, 0, 2)}, r)
	out := buf.String()

	assert.Contains(t, out, "Run ID:        run-1")
	assert.Contains(t, out, "Strategy:      sma(20)")
	assert.Contains(t, out, "Start:         2020-01-01T00:00:00Z")
	assert.Contains(t, out, "End Capital:   10150.00")
	assert.Contains(t, out, "Net P/L:       150.00")
	assert.Contains(t, out, "Commission:    3.25")
	assert.Contains(t, out, "Trades:        2")
	assert.Contains(t, out, "Win Rate:      50.00%")
	assert.Contains(t, out, "Profit Factor: 4.00")
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1234.57", Money(1234.5678))
	assert.Equal(t, "-0.50", Money(-0.5))
	assert.Equal(t, "+Inf", Money(math.Inf(1)))
	assert.Equal(t, "inf", Ratio(math.Inf(1)))
	assert.Equal(t, "1.50", Ratio(1.5))
}
