package journal

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{runsHeader}, readCSV(t, filepath.Join(dir, "runs.csv")))
	assert.Equal(t, [][]string{tradesHeader}, readCSV(t, filepath.Join(dir, "trades.csv")))
	assert.Equal(t, [][]string{ordersHeader}, readCSV(t, filepath.Join(dir, "orders.csv")))
	assert.Equal(t, [][]string{equityHeader}, readCSV(t, filepath.Join(dir, "equity.csv")))
}

func TestCSVJournalRecordTrade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)

	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:      "R1",
		TradeID:    "T1",
		Asset:      "AAPL",
		Direction:  "long",
		Quantity:   12.5,
		EntryPrice: 1.2345678,
		ExitPrice:  1.3456789,
		OpenTime:   open,
		CloseTime:  closeT,
		PnL:        -12.5,
		PnLPercent: -1.25,
		Commission: 0.1,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"R1", "T1", "AAPL", "long",
		"12.500000", "1.234568", "1.345679",
		open.Format(time.RFC3339), closeT.Format(time.RFC3339),
		"-12.500000", "-1.250000", "0.100000",
	}, rows[1])
}

func TestCSVJournalAppendsWithoutRepeatingHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rep := sampleReport(t)

	for i := 0; i < 2; i++ {
		j, err := NewCSV(dir)
		require.NoError(t, err)
		_, err = Persist(j, rep, "sample.csv", nil)
		require.NoError(t, err)
		require.NoError(t, j.Close())
	}

	runs := readCSV(t, filepath.Join(dir, "runs.csv"))
	assert.Len(t, runs, 3)
	assert.Equal(t, runsHeader, runs[0])
	assert.Len(t, readCSV(t, filepath.Join(dir, "trades.csv")), 5)
	assert.Len(t, readCSV(t, filepath.Join(dir, "equity.csv")), 11)
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.500000", f(1.5))
	assert.Equal(t, "inf", f(math.Inf(1)))
	assert.Equal(t, "-inf", f(math.Inf(-1)))
}
