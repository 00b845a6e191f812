package indicators

import "fmt"

// RSI is Wilder's relative strength index. Gains and losses are smoothed
// with alpha 1/period, seeded by the first change.
type RSI struct {
	period  int
	alpha   float64
	prev    float64
	changes int // -1 until the first price arrives
	avgGain float64
	avgLoss float64
}

func NewRSI(period int) *RSI {
	if period < 1 {
		period = 1
	}
	return &RSI{period: period, alpha: 1 / float64(period), changes: -1}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

// Warmup counts prices, not changes.
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	r.prev, r.avgGain, r.avgLoss = 0, 0, 0
	r.changes = -1
}

func (r *RSI) Update(x float64) {
	if r.changes < 0 {
		r.prev = x
		r.changes = 0
		return
	}
	d := x - r.prev
	r.prev = x

	gain, loss := 0.0, 0.0
	if d > 0 {
		gain = d
	} else {
		loss = -d
	}

	if r.changes == 0 {
		r.avgGain, r.avgLoss = gain, loss
	} else {
		r.avgGain += r.alpha * (gain - r.avgGain)
		r.avgLoss += r.alpha * (loss - r.avgLoss)
	}
	r.changes++
}

func (r *RSI) Ready() bool { return r.changes >= r.period }

// Value is 100 when there have been no losses and 50 on a flat series.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
