package indicators

import "fmt"

// SimpleMA is a streaming simple moving average.
type SimpleMA struct {
	period int
	window []float64
	next   int
	count  int
	sum    float64
}

// NewSMA returns a simple moving average over period samples.
func NewSMA(period int) *SimpleMA {
	if period < 1 {
		period = 1
	}
	return &SimpleMA{period: period, window: make([]float64, period)}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("SMA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	m.next, m.count, m.sum = 0, 0, 0
	for i := range m.window {
		m.window[i] = 0
	}
}

func (m *SimpleMA) Update(x float64) {
	if m.count == m.period {
		m.sum -= m.window[m.next]
	} else {
		m.count++
	}
	m.window[m.next] = x
	m.sum += x
	m.next = (m.next + 1) % m.period
}

func (m *SimpleMA) Ready() bool { return m.count >= m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(m.period)
}

// ExponentialMA is a streaming exponential moving average with smoothing
// 2/(period+1). It is seeded with the first sample, so it carries a value from
// the first update; Ready waits for period samples.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
}

// NewEMA returns an exponential moving average over period samples.
func NewEMA(period int) *ExponentialMA {
	if period < 1 {
		period = 1
	}
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
}

func (e *ExponentialMA) Update(x float64) {
	if e.count == 0 {
		e.ema = x
	} else {
		e.ema = (x-e.ema)*e.multiplier + e.ema
	}
	e.count++
}

func (e *ExponentialMA) Ready() bool { return e.count >= e.period }

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}

// Current returns the running average even during warmup.
func (e *ExponentialMA) Current() float64 { return e.ema }
