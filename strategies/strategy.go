// Package strategies turns price frames into trading signals.
package strategies

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
)

// Strategy derives a signal column from a price frame. Generate returns a new
// frame carrying the input columns, any indicator columns it computed, and
// market.Signal with values in {-1, 0, +1}. The input frame is not modified.
type Strategy interface {
	Name() string
	Generate(f *market.Frame) (*market.Frame, error)
}

// Names lists the strategies New understands.
var Names = []string{"noop", "buy-and-hold", "sma", "ema", "rsi", "macd", "bollinger", "consensus"}

// New builds the strategy described by cfg. Zero parameters take each
// strategy's defaults.
func New(cfg config.StrategyConfig) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "noop", "none":
		return Noop{}, nil

	case "buy-and-hold", "buyandhold":
		return BuyAndHold{}, nil

	case "sma":
		return &SMA{
			Period:        or(cfg.Period, 20),
			Fast:          or(cfg.Fast, 10),
			Slow:          or(cfg.Slow, 30),
			Crossover:     cfg.Crossover,
			VolumeConfirm: cfg.Volume,
		}, nil

	case "ema":
		return &EMA{
			Period:        or(cfg.Period, 20),
			Fast:          or(cfg.Fast, 12),
			Slow:          or(cfg.Slow, 26),
			Crossover:     cfg.Crossover,
			VolumeConfirm: cfg.Volume,
		}, nil

	case "rsi":
		return &RSI{
			Period: or(cfg.Period, 14),
			Lower:  orF(cfg.Lower, 30),
			Upper:  orF(cfg.Upper, 70),
		}, nil

	case "macd":
		return &MACD{
			Fast:   or(cfg.Fast, 12),
			Slow:   or(cfg.Slow, 26),
			Signal: or(cfg.Signal, 9),
		}, nil

	case "bollinger", "bb":
		return &Bollinger{
			Period: or(cfg.Period, 20),
			NumStd: orF(cfg.NumStd, 2),
		}, nil

	case "consensus", "combined":
		members := make([]Strategy, 0, len(cfg.Members))
		for _, m := range cfg.Members {
			s, err := New(m)
			if err != nil {
				return nil, err
			}
			members = append(members, s)
		}
		return NewConsensus(cfg.Threshold, members...)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", cfg.Name, strings.Join(Names, ", "))
	}
}

func or(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orF(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// closes returns the close column of a non-empty frame.
func closes(f *market.Frame) ([]float64, error) {
	if f.Len() == 0 {
		return nil, market.ErrEmptyFrame
	}
	return f.Column(market.Close)
}

// emit copies f and adds cols in order, finishing with the signal column.
func emit(f *market.Frame, signal []float64, cols ...column) (*market.Frame, error) {
	out := f.Copy()
	for _, c := range cols {
		if err := out.Set(c.name, c.values); err != nil {
			return nil, err
		}
	}
	if err := out.Set(market.Signal, signal); err != nil {
		return nil, err
	}
	return out, nil
}

type column struct {
	name   string
	values []float64
}

// stateCross marks transitions of the condition a > b. Rows where either
// side is NaN count as "not above".
func stateCross(a, b []float64) []float64 {
	sig := make([]float64, len(a))
	prev := false
	for i := range a {
		above := a[i] > b[i]
		switch {
		case above && !prev:
			sig[i] = 1
		case !above && prev:
			sig[i] = -1
		}
		prev = above
	}
	return sig
}

// zeroCross marks sign changes of x: +1 when it turns positive from at or
// below zero, -1 when it turns negative from at or above zero.
func zeroCross(x []float64) []float64 {
	sig := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		switch {
		case x[i] > 0 && x[i-1] <= 0:
			sig[i] = 1
		case x[i] < 0 && x[i-1] >= 0:
			sig[i] = -1
		}
	}
	return sig
}

// confirmVolume zeroes signals on rows whose volume is not above 1.5 times
// its 20-bar average.
func confirmVolume(f *market.Frame, sig []float64) error {
	vol, err := f.Column(market.Volume)
	if err != nil {
		return err
	}
	avg := rolling(vol, 20)
	for i := range sig {
		if !(vol[i] > avg[i]*1.5) {
			sig[i] = 0
		}
	}
	return nil
}

// rolling is the trailing simple mean over n samples, NaN until the window
// fills.
func rolling(x []float64, n int) []float64 {
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= n {
			sum -= x[i-n]
		}
		if i+1 < n {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

var unsafeKey = regexp.MustCompile(`[^a-z0-9]+`)

// columnKey turns a strategy name into a column-safe identifier.
func columnKey(name string) string {
	return strings.Trim(unsafeKey.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
