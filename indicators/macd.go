package indicators

import "fmt"

// MACD is the moving average convergence divergence: the fast EMA minus the
// slow EMA, with an EMA of that difference as the signal line.
type MACD struct {
	fast, slow, signal *ExponentialMA
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int { return m.slow.period + m.signal.period - 1 }

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACD) Update(x float64) {
	m.fast.Update(x)
	m.slow.Update(x)
	if m.slow.Ready() {
		m.signal.Update(m.Line())
	}
}

func (m *MACD) Ready() bool { return m.slow.Ready() && m.signal.Ready() }

// Line is the fast EMA minus the slow EMA.
func (m *MACD) Line() float64 { return m.fast.Current() - m.slow.Current() }

// Signal is the EMA of Line.
func (m *MACD) Signal() float64 { return m.signal.Current() }

// Histogram is Line minus Signal.
func (m *MACD) Histogram() float64 { return m.Line() - m.Signal() }

// Value returns the histogram.
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.Histogram()
}
