// Package indicators provides streaming technical indicators over a single
// price series.
package indicators

import "math"

// Indicator computes a single streaming value from a price series.
// It is deterministic and safe to use for bar-by-bar replay and batch
// signal generation.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed price.
	Update(x float64)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value, or 0 before the indicator is ready.
	Value() float64
}

// Series feeds xs through ind from a fresh state and returns the value after
// each update, with NaN while the indicator is warming up.
func Series(ind Indicator, xs []float64) []float64 {
	ind.Reset()
	out := make([]float64, len(xs))
	for i, x := range xs {
		ind.Update(x)
		if ind.Ready() {
			out[i] = ind.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
