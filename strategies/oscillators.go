package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// RSI buys when the index is below Lower and sells when it is above Upper.
type RSI struct {
	Period int
	Lower  float64
	Upper  float64
}

func (r *RSI) Name() string { return fmt.Sprintf("rsi(%d)", r.Period) }

func (r *RSI) Generate(f *market.Frame) (*market.Frame, error) {
	c, err := closes(f)
	if err != nil {
		return nil, err
	}
	rsi := indicators.Series(indicators.NewRSI(r.Period), c)

	sig := make([]float64, len(c))
	for i, v := range rsi {
		switch {
		case v < r.Lower:
			sig[i] = 1
		case v > r.Upper:
			sig[i] = -1
		}
	}
	return emit(f, sig, column{"rsi", rsi})
}

// MACD trades sign changes of the histogram.
type MACD struct {
	Fast   int
	Slow   int
	Signal int
}

func (m *MACD) Name() string { return fmt.Sprintf("macd(%d,%d,%d)", m.Fast, m.Slow, m.Signal) }

func (m *MACD) Generate(f *market.Frame) (*market.Frame, error) {
	c, err := closes(f)
	if err != nil {
		return nil, err
	}

	ind := indicators.NewMACD(m.Fast, m.Slow, m.Signal)
	line := make([]float64, len(c))
	signal := make([]float64, len(c))
	hist := make([]float64, len(c))
	for i, x := range c {
		ind.Update(x)
		if !ind.Ready() {
			line[i], signal[i], hist[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		line[i], signal[i], hist[i] = ind.Line(), ind.Signal(), ind.Histogram()
	}

	return emit(f, zeroCross(hist),
		column{"macd", line},
		column{"macd_signal", signal},
		column{"macd_histogram", hist})
}

// Bollinger buys at or below the lower band and sells at or above the upper.
type Bollinger struct {
	Period int
	NumStd float64
}

func (b *Bollinger) Name() string { return fmt.Sprintf("bollinger(%d,%g)", b.Period, b.NumStd) }

func (b *Bollinger) Generate(f *market.Frame) (*market.Frame, error) {
	c, err := closes(f)
	if err != nil {
		return nil, err
	}

	ind := indicators.NewBollinger(b.Period, b.NumStd)
	upper := make([]float64, len(c))
	middle := make([]float64, len(c))
	lower := make([]float64, len(c))
	sig := make([]float64, len(c))
	for i, x := range c {
		ind.Update(x)
		if !ind.Ready() {
			upper[i], middle[i], lower[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		upper[i], middle[i], lower[i] = ind.Upper(), ind.Middle(), ind.Lower()
		switch {
		case x <= lower[i]:
			sig[i] = 1
		case x >= upper[i]:
			sig[i] = -1
		}
	}

	return emit(f, sig,
		column{"bb_upper", upper},
		column{"bb_middle", middle},
		column{"bb_lower", lower})
}
