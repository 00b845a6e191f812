package metrics

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Header names a run in the printed summary.
type Header struct {
	RunID    string
	Strategy string
	Asset    string
	Dataset  string
	Start    time.Time
	End      time.Time
}

// PrintSummary writes a human readable report of r.
func PrintSummary(w io.Writer, h Header, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if h.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", h.RunID)
	}
	if h.Strategy != "" {
		fmt.Fprintf(w, "Strategy:      %s\n", h.Strategy)
	}
	if h.Asset != "" {
		fmt.Fprintf(w, "Asset:         %s\n", h.Asset)
	}
	if h.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", h.Dataset)
	}

	if !h.Start.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", h.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", h.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Capital: %s\n", Money(r.InitialCapital))
	fmt.Fprintf(w, "End Capital:   %s\n", Money(r.FinalCapital))
	fmt.Fprintf(w, "Net P/L:       %s\n", Money(r.TotalPnL))
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.TotalReturnPercent)
	fmt.Fprintf(w, "Commission:    %s\n", Money(r.TotalCommission))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Sharpe Ratio:  %.2f\n", r.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown:  %s (%.2f%%)\n", Money(r.MaxDrawdown), r.MaxDrawdownPercent)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Losses:        %d\n", r.LosingTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate)
	fmt.Fprintf(w, "Average Win:   %s\n", Money(r.AverageWin))
	fmt.Fprintf(w, "Average Loss:  %s\n", Money(r.AverageLoss))
	fmt.Fprintf(w, "Profit Factor: %s\n", Ratio(r.ProfitFactor))

	fmt.Fprintln(w, "==================================================")
}

// Money formats a currency amount to cents.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Ratio formats a ratio that may be infinite.
func Ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteYAML writes r to path.
func WriteYAML(path string, r Result) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result to file: %w", err)
	}

	return nil
}

// ReadYAML loads a Result written by WriteYAML.
func ReadYAML(path string) (Result, error) {
	var r Result
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse result YAML: %w", err)
	}
	return r, nil
}
