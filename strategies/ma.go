package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// SMA trades the close crossing its simple moving average or, with
// Crossover set, a fast average crossing a slow one.
type SMA struct {
	Period        int
	Fast          int
	Slow          int
	Crossover     bool
	VolumeConfirm bool
}

func (s *SMA) Name() string {
	if s.Crossover {
		return fmt.Sprintf("sma(%d,%d)", s.Fast, s.Slow)
	}
	return fmt.Sprintf("sma(%d)", s.Period)
}

func (s *SMA) Generate(f *market.Frame) (*market.Frame, error) {
	return averageCross(f, s.Crossover, s.VolumeConfirm, "sma",
		func() indicators.Indicator { return indicators.NewSMA(s.Period) },
		func() indicators.Indicator { return indicators.NewSMA(s.Fast) },
		func() indicators.Indicator { return indicators.NewSMA(s.Slow) })
}

// EMA is SMA with exponential averages.
type EMA struct {
	Period        int
	Fast          int
	Slow          int
	Crossover     bool
	VolumeConfirm bool
}

func (e *EMA) Name() string {
	if e.Crossover {
		return fmt.Sprintf("ema(%d,%d)", e.Fast, e.Slow)
	}
	return fmt.Sprintf("ema(%d)", e.Period)
}

func (e *EMA) Generate(f *market.Frame) (*market.Frame, error) {
	return averageCross(f, e.Crossover, e.VolumeConfirm, "ema",
		func() indicators.Indicator { return indicators.NewEMA(e.Period) },
		func() indicators.Indicator { return indicators.NewEMA(e.Fast) },
		func() indicators.Indicator { return indicators.NewEMA(e.Slow) })
}

func averageCross(f *market.Frame, crossover, volume bool, prefix string,
	single, fast, slow func() indicators.Indicator) (*market.Frame, error) {
	c, err := closes(f)
	if err != nil {
		return nil, err
	}

	var (
		sig  []float64
		cols []column
	)
	if crossover {
		fv := indicators.Series(fast(), c)
		sv := indicators.Series(slow(), c)
		sig = stateCross(fv, sv)
		cols = []column{{prefix + "_fast", fv}, {prefix + "_slow", sv}}
	} else {
		mv := indicators.Series(single(), c)
		sig = stateCross(c, mv)
		cols = []column{{prefix, mv}}
	}

	if volume && f.Has(market.Volume) {
		if err := confirmVolume(f, sig); err != nil {
			return nil, err
		}
	}
	return emit(f, sig, cols...)
}
