package indicators

import (
	"fmt"
	"math"
)

// Bollinger bands: a simple moving average with bands numStd sample standard
// deviations above and below.
type Bollinger struct {
	sma    *SimpleMA
	numStd float64
}

func NewBollinger(period int, numStd float64) *Bollinger {
	return &Bollinger{sma: NewSMA(period), numStd: numStd}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%g)", b.sma.period, b.numStd)
}

func (b *Bollinger) Warmup() int      { return b.sma.period }
func (b *Bollinger) Reset()           { b.sma.Reset() }
func (b *Bollinger) Update(x float64) { b.sma.Update(x) }
func (b *Bollinger) Ready() bool      { return b.sma.Ready() }

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.Middle() }

func (b *Bollinger) Middle() float64 { return b.sma.Value() }
func (b *Bollinger) Upper() float64  { return b.Middle() + b.numStd*b.StdDev() }
func (b *Bollinger) Lower() float64  { return b.Middle() - b.numStd*b.StdDev() }

// StdDev is the sample standard deviation of the window. A one-sample window
// has no spread.
func (b *Bollinger) StdDev() float64 {
	if !b.Ready() || b.sma.period < 2 {
		return 0
	}
	mean := b.Middle()
	var ss float64
	for _, x := range b.sma.window {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(b.sma.period-1))
}
