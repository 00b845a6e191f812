package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/metrics"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))

	err := root.Execute()
	return out.String(), err
}

// writePrices writes a daily OHLCV file with the given closes.
func writePrices(t *testing.T, dir, name string, closes ...float64) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	for i, c := range closes {
		fmt.Fprintf(&b, "2023-01-%02d,%g,%g,%g,%g,1000\n", i+1, c, c+1, c-1, c)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "backtester dev\n", out)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backtest.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Strategy: sma")

	out, err = execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "backtester configuration")

	_, err = execute(t, "config", "validate")
	assert.Error(t, err)
}

func TestRunJournalAndQuery(t *testing.T) {
	dir := t.TempDir()
	data := writePrices(t, dir, "prices.csv", 100, 102, 101, 105, 108)
	db := filepath.Join(dir, "runs.sqlite")
	result := filepath.Join(dir, "result.yaml")
	org := filepath.Join(dir, "run.org")

	out, err := execute(t, "run",
		"--data", data,
		"--strategy", "buy-and-hold",
		"--asset", "TEST",
		"--db", db,
		"--out", result,
		"--org", org,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "Strategy:      buy-and-hold")
	assert.Contains(t, out, "Trades:        1")

	res, err := metrics.ReadYAML(result)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalTrades)
	assert.Greater(t, res.FinalCapital, res.InitialCapital)

	orgData, err := os.ReadFile(org)
	require.NoError(t, err)
	assert.Contains(t, string(orgData), "* BACKTEST: buy-and-hold TEST")

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	runs, err := j.ListRuns(0)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, runs, 1)
	runID := runs[0].RunID

	out, err = execute(t, "journal", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "journal", "show", runID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Trade Statistics")
	assert.Contains(t, out, "long")

	out, err = execute(t, "journal", "org", runID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      "+runID)
	assert.Contains(t, out, "** Trade: TEST long")

	_, err = execute(t, "journal", "show", "missing", "--db", db)
	assert.ErrorContains(t, err, "not found")
}

func TestRunPrecomputedSignals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.csv")
	csv := "date,close,signal\n" +
		"2023-01-01,100,1\n" +
		"2023-01-02,110,0\n" +
		"2023-01-03,120,-1\n" +
		"2023-01-04,115,0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	out, err := execute(t, "run", "--data", path, "--precomputed", "--no-journal")
	require.NoError(t, err)
	assert.Contains(t, out, "Strategy:      precomputed")
	assert.Contains(t, out, "Wins:          1")
}

func TestRunRange(t *testing.T) {
	dir := t.TempDir()
	data := writePrices(t, dir, "prices.csv", 100, 102, 101, 105, 108)

	out, err := execute(t, "run", "--data", data, "--strategy", "noop", "--no-journal",
		"--from", "2023-01-02", "--to", "2023-01-04")
	require.NoError(t, err)
	assert.Contains(t, out, "Start:         2023-01-02T00:00:00Z")
	assert.Contains(t, out, "End:           2023-01-03T00:00:00Z")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	data := writePrices(t, dir, "prices.csv", 100, 101)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no data", []string{"run", "--no-journal"}, "no data file"},
		{"bad strategy", []string{"run", "--data", data, "--strategy", "magic", "--no-journal"}, "strategy.name"},
		{"bad cash", []string{"run", "--data", data, "--cash", "-1", "--no-journal"}, "initial_cash"},
		{"bad range", []string{"run", "--data", data, "--from", "2023-02-01", "--to", "2023-01-01", "--no-journal"}, "--from must be before --to"},
		{"bad time", []string{"run", "--data", data, "--from", "yesterday", "--no-journal"}, "--from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSignalsToStdout(t *testing.T) {
	dir := t.TempDir()
	data := writePrices(t, dir, "prices.csv", 100, 101, 102)

	out, err := execute(t, "signals", "--data", data, "--strategy", "buy-and-hold")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,"))
	assert.True(t, strings.HasSuffix(lines[0], ",signal"))
	assert.True(t, strings.HasSuffix(lines[1], ",1"))
	assert.True(t, strings.HasSuffix(lines[2], ",0"))
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	a := writePrices(t, dir, "a.csv", 100, 110, 120)
	b := writePrices(t, dir, "b.csv", 100, 90, 80)
	journalDir := filepath.Join(dir, "journal")

	_, err := execute(t, "batch", a, b, "--strategy", "buy-and-hold", "--journal", "csv", "-q")
	assert.ErrorContains(t, err, "journal.dir required")

	cfgPath := filepath.Join(dir, "cfg.yaml")
	cfg := fmt.Sprintf("strategy:\n  name: buy-and-hold\njournal:\n  type: csv\n  dir: %s\n", journalDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := execute(t, "batch", a, b, "-c", cfgPath, "-q", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "b.csv")

	runs, err := os.ReadFile(filepath.Join(journalDir, "runs.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(runs), "\n"))
}
