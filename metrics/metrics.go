// Package metrics computes performance statistics from a ledger's closed
// trades and equity curve.
package metrics

import (
	"math"

	"github.com/rustyeddy/backtester/ledger"
)

// Result summarizes one backtest.
type Result struct {
	TotalPnL           float64 `json:"total_pnl" yaml:"total_pnl"`
	TotalReturnPercent float64 `json:"total_return_pct" yaml:"total_return_pct"`
	SharpeRatio        float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	MaxDrawdown        float64 `json:"max_drawdown" yaml:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`

	TotalTrades   int     `json:"total_trades" yaml:"total_trades"`
	WinningTrades int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades  int     `json:"losing_trades" yaml:"losing_trades"`
	WinRate       float64 `json:"win_rate" yaml:"win_rate"`
	AverageWin    float64 `json:"avg_win" yaml:"avg_win"`
	AverageLoss   float64 `json:"avg_loss" yaml:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor" yaml:"profit_factor"`

	InitialCapital  float64 `json:"initial_capital" yaml:"initial_capital"`
	FinalCapital    float64 `json:"final_capital" yaml:"final_capital"`
	TotalCommission float64 `json:"total_commission" yaml:"total_commission"`

	Trades      []ledger.Trade       `json:"trades" yaml:"trades"`
	EquityCurve []ledger.EquityPoint `json:"equity_curve" yaml:"equity_curve"`
}

// Options tune the risk-adjusted statistics.
type Options struct {
	// RiskFreeRate is the annual rate; each return is reduced by
	// RiskFreeRate / PeriodsPerYear.
	RiskFreeRate float64
	// PeriodsPerYear annualizes the Sharpe ratio.
	PeriodsPerYear int
}

// DefaultOptions assumes daily bars and no risk-free return.
func DefaultOptions() Options {
	return Options{PeriodsPerYear: 252}
}

// Calculate builds the Result for a finished run. With no closed trades
// every statistic is zero and the final capital equals the initial capital.
func Calculate(trades []ledger.Trade, curve []ledger.EquityPoint, initialCapital, totalCommission float64, opts Options) Result {
	res := Result{
		InitialCapital:  initialCapital,
		FinalCapital:    initialCapital,
		TotalCommission: totalCommission,
		Trades:          append([]ledger.Trade{}, trades...),
		EquityCurve:     append([]ledger.EquityPoint{}, curve...),
	}
	if len(trades) == 0 {
		return res
	}

	var grossWin, grossLoss float64
	for _, t := range trades {
		res.TotalPnL += t.PnL
		if t.Winner() {
			res.WinningTrades++
			grossWin += t.PnL
		} else {
			res.LosingTrades++
			grossLoss += t.PnL
		}
	}
	res.TotalTrades = len(trades)
	res.WinRate = float64(res.WinningTrades) / float64(res.TotalTrades) * 100

	if res.WinningTrades > 0 {
		res.AverageWin = grossWin / float64(res.WinningTrades)
	}
	if res.LosingTrades > 0 {
		res.AverageLoss = grossLoss / float64(res.LosingTrades)
	}
	res.ProfitFactor = ProfitFactor(grossWin, grossLoss)

	if len(curve) > 0 {
		res.FinalCapital = curve[len(curve)-1].Equity
	}
	if initialCapital != 0 {
		res.TotalReturnPercent = (res.FinalCapital - initialCapital) / initialCapital * 100
	}

	equity := Equities(curve)
	res.SharpeRatio = SharpeRatio(equity, opts.RiskFreeRate, opts.PeriodsPerYear)
	res.MaxDrawdown, res.MaxDrawdownPercent = MaxDrawdown(equity)
	return res
}

// ProfitFactor is gross profit over the absolute gross loss. It is +Inf
// whenever there is no loss, including a run of break-even trades. Calculate
// reports 0 for a run with no trades at all.
func ProfitFactor(grossWin, grossLoss float64) float64 {
	loss := math.Abs(grossLoss)
	if loss == 0 {
		return math.Inf(1)
	}
	return grossWin / loss
}

// Equities extracts the equity values of a curve.
func Equities(curve []ledger.EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Equity
	}
	return out
}

// Returns are the period-over-period fractional changes of equity. A change
// from zero equity counts as no return.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] != 0 {
			out[i-1] = (equity[i] - equity[i-1]) / equity[i-1]
		}
	}
	return out
}

// SharpeRatio is the annualized mean excess return over the sample standard
// deviation of returns. annualRate is spread evenly over periodsPerYear.
// It is 0 when fewer than two returns exist or the returns do not vary.
func SharpeRatio(equity []float64, annualRate float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultOptions().PeriodsPerYear
	}

	rets := Returns(equity)
	if len(rets) < 2 {
		return 0
	}

	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))

	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(rets)-1))
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	perPeriod := annualRate / float64(periodsPerYear)
	return (mean - perPeriod) / std * math.Sqrt(float64(periodsPerYear))
}

// MaxDrawdown returns the largest fall of equity below its running peak, and
// that fall as a percentage of the peak it fell from.
func MaxDrawdown(equity []float64) (float64, float64) {
	if len(equity) == 0 {
		return 0, 0
	}

	peak := equity[0]
	var dd, pct float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if d := peak - e; d > dd {
			dd = d
			if peak != 0 {
				pct = d / peak * 100
			}
		}
	}
	return dd, pct
}
