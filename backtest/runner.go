// Package backtest replays a signal-annotated price frame through a ledger
// and scores the result.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/internal/logger"
	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
)

var (
	ErrMissingSignal = errors.New("backtest: missing signal column")
	ErrInvalidSignal = errors.New("backtest: invalid signal value")
	ErrInvalidPrice  = errors.New("backtest: invalid close price")
)

// SignalGenerator adds a market.Signal column to a frame.
type SignalGenerator interface {
	Name() string
	Generate(f *market.Frame) (*market.Frame, error)
}

// Report is the outcome of one run.
type Report struct {
	metrics.Result `yaml:",inline"`

	RunID    string         `json:"run_id" yaml:"run_id"`
	Strategy string         `json:"strategy" yaml:"strategy"`
	Asset    string         `json:"asset" yaml:"asset"`
	Start    time.Time      `json:"start" yaml:"start"`
	End      time.Time      `json:"end" yaml:"end"`
	Bars     int            `json:"bars" yaml:"bars"`
	Orders   []ledger.Order `json:"orders" yaml:"orders"`
}

// Header returns the summary header for the report.
func (r Report) Header(dataset string) metrics.Header {
	return metrics.Header{
		RunID:    r.RunID,
		Strategy: r.Strategy,
		Asset:    r.Asset,
		Dataset:  dataset,
		Start:    r.Start,
		End:      r.End,
	}
}

// Runner drives a fresh ledger through a frame one bar at a time. A Runner
// holds no per-run state and may be shared between goroutines.
type Runner struct {
	// Strategy generates signals. When nil the frame must already carry a
	// signal column.
	Strategy SignalGenerator
	Options  Options
	Log      *zap.Logger
}

// NewRunner returns a runner with opts filled from DefaultOptions.
func NewRunner(strategy SignalGenerator, opts Options, log *zap.Logger) *Runner {
	return &Runner{Strategy: strategy, Options: opts.withDefaults(), Log: log}
}

// Run executes the backtest loop. For each bar in order:
//  1. mark the open position at the close
//  2. buy on +1 when flat, sell everything on -1 when long
//  3. snapshot equity
//
// A position still open after the last bar is sold at the last close.
func (r *Runner) Run(ctx context.Context, f *market.Frame) (Report, error) {
	opts := r.Options.withDefaults()
	log := logger.OrNop(r.Log)

	if err := opts.Ledger.Validate(); err != nil {
		return Report{}, err
	}
	if f.Len() == 0 {
		return Report{}, market.ErrEmptyFrame
	}
	if err := f.CheckChronological(); err != nil {
		return Report{}, err
	}
	closes, err := f.Column(market.Close)
	if err != nil {
		return Report{}, err
	}
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return Report{}, fmt.Errorf("%w: row %d: %v", ErrInvalidPrice, i, c)
		}
	}

	name := "precomputed"
	data := f
	if r.Strategy != nil {
		name = r.Strategy.Name()
		data, err = r.Strategy.Generate(f)
		if err != nil {
			return Report{}, fmt.Errorf("backtest: strategy %s: %w", name, err)
		}
		if data.Len() != f.Len() {
			return Report{}, fmt.Errorf("backtest: strategy %s returned %d rows for %d bars", name, data.Len(), f.Len())
		}
	}
	signals, err := signalColumn(data)
	if err != nil {
		return Report{}, err
	}

	book, err := ledger.New(opts.Ledger, log)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		RunID:    id.New(),
		Strategy: name,
		Asset:    opts.Asset,
		Start:    f.Time(0),
		End:      f.Time(f.Len() - 1),
		Bars:     f.Len(),
	}
	log.Info("backtest started",
		zap.String("run", rep.RunID),
		zap.String("strategy", name),
		zap.String("asset", opts.Asset),
		zap.Int("bars", rep.Bars),
		zap.Float64("cash", opts.Ledger.InitialCash))

	submit := func(side ledger.Side, qty, price float64, ts time.Time) {
		o := ledger.NewMarketOrder(opts.Asset, side, qty, ts)
		book.Execute(o, price, ts)
		rep.Orders = append(rep.Orders, *o)
	}

	for i, price := range closes {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		ts := f.Time(i)

		book.Mark(opts.Asset, price)
		pos, open := book.Position(opts.Asset)

		switch {
		case signals[i] == 1 && !open:
			if qty := opts.Sizer.Quantity(book.Cash(), price); qty > 0 {
				submit(ledger.Buy, qty, price, ts)
			}
		case signals[i] == -1 && open && pos.Long():
			submit(ledger.Sell, pos.Quantity, price, ts)
		}

		book.Snapshot(ts)
	}

	if pos, open := book.Position(opts.Asset); open && pos.Long() {
		last := len(closes) - 1
		submit(ledger.Sell, pos.Quantity, closes[last], f.Time(last))
	}

	rep.Result = metrics.Calculate(book.Trades(), book.EquityCurve(), book.InitialCash(), book.TotalCommission(), opts.Metrics)
	log.Info("backtest finished",
		zap.String("run", rep.RunID),
		zap.Int("trades", rep.TotalTrades),
		zap.Float64("final", rep.FinalCapital),
		zap.Float64("return_pct", rep.TotalReturnPercent))
	return rep, nil
}

func signalColumn(f *market.Frame) ([]float64, error) {
	sig, err := f.Column(market.Signal)
	if errors.Is(err, market.ErrMissingColumn) {
		return nil, ErrMissingSignal
	}
	if err != nil {
		return nil, err
	}
	for i, v := range sig {
		if v != -1 && v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidSignal, i, v)
		}
	}
	return sig, nil
}
