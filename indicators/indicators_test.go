package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var closes = []float64{102, 105, 106, 108, 110, 107, 104, 109, 111, 115}

func TestSimpleMAStreaming(t *testing.T) {
	t.Run("basic functionality", func(t *testing.T) {
		ma := NewSMA(3)
		assert.Equal(t, "SMA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(closes[0])
		ma.Update(closes[1])
		assert.False(t, ma.Ready())

		ma.Update(closes[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 1e-9)

		ma.Update(closes[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 1e-9)
	})

	t.Run("reset functionality", func(t *testing.T) {
		ma := NewSMA(2)
		ma.Update(closes[0])
		ma.Update(closes[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(1)
		ma.Update(3)
		assert.Equal(t, 2.0, ma.Value())
	})

	t.Run("matches batch calculation", func(t *testing.T) {
		got := Series(NewSMA(4), closes)
		for i := range closes {
			if i < 3 {
				assert.True(t, math.IsNaN(got[i]))
				continue
			}
			want := (closes[i] + closes[i-1] + closes[i-2] + closes[i-3]) / 4
			assert.InDelta(t, want, got[i], 1e-9, "row %d", i)
		}
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	ema := NewEMA(3)
	assert.Equal(t, "EMA(3)", ema.Name())

	// Seeded with the first sample, alpha = 0.5.
	ema.Update(10)
	assert.False(t, ema.Ready())
	assert.Equal(t, 10.0, ema.Current())
	ema.Update(20)
	assert.Equal(t, 15.0, ema.Current())
	ema.Update(30)
	assert.True(t, ema.Ready())
	assert.Equal(t, 22.5, ema.Value())

	ema.Reset()
	assert.False(t, ema.Ready())
	assert.Equal(t, 0.0, ema.Value())
}

func TestRSI(t *testing.T) {
	t.Run("all gains", func(t *testing.T) {
		r := NewRSI(3)
		for _, x := range []float64{1, 2, 3, 4} {
			r.Update(x)
		}
		require.True(t, r.Ready())
		assert.Equal(t, 100.0, r.Value())
	})

	t.Run("flat", func(t *testing.T) {
		got := Series(NewRSI(2), []float64{5, 5, 5, 5})
		assert.True(t, math.IsNaN(got[1]))
		assert.Equal(t, 50.0, got[3])
	})

	t.Run("wilder smoothing", func(t *testing.T) {
		r := NewRSI(2)
		// changes: +2, -1, +1
		for _, x := range []float64{10, 12, 11, 12} {
			r.Update(x)
		}
		// gain: 2 -> 1 -> 1 ; loss: 0 -> 0.5 -> 0.25
		assert.InDelta(t, 100-100/(1+1/0.25), r.Value(), 1e-9)
		assert.Equal(t, 3, r.Warmup())
	})

	t.Run("all losses", func(t *testing.T) {
		got := Series(NewRSI(2), []float64{10, 9, 8, 7})
		assert.InDelta(t, 0.0, got[3], 1e-9)
	})
}

func TestMACD(t *testing.T) {
	m := NewMACD(2, 3, 2)
	assert.Equal(t, "MACD(2,3,2)", m.Name())
	assert.Equal(t, 4, m.Warmup())

	got := Series(m, closes)
	for i := 0; i < m.Warmup()-1; i++ {
		assert.True(t, math.IsNaN(got[i]), "row %d", i)
	}
	assert.False(t, math.IsNaN(got[m.Warmup()-1]))

	// Replay by hand.
	fast, slow, sig := NewEMA(2), NewEMA(3), NewEMA(2)
	for i, x := range closes {
		fast.Update(x)
		slow.Update(x)
		if slow.Ready() {
			sig.Update(fast.Current() - slow.Current())
		}
		if i == len(closes)-1 {
			line := fast.Current() - slow.Current()
			assert.InDelta(t, line-sig.Current(), got[i], 1e-9)
			assert.InDelta(t, line, m.Line(), 1e-9)
			assert.InDelta(t, sig.Current(), m.Signal(), 1e-9)
		}
	}
}

func TestBollinger(t *testing.T) {
	b := NewBollinger(4, 2)
	assert.Equal(t, "BB(4,2)", b.Name())

	for _, x := range []float64{2, 4, 4, 6} {
		b.Update(x)
	}
	require.True(t, b.Ready())

	mean := 4.0
	sd := math.Sqrt((4 + 0 + 0 + 4) / 3.0)
	assert.InDelta(t, mean, b.Middle(), 1e-9)
	assert.InDelta(t, sd, b.StdDev(), 1e-9)
	assert.InDelta(t, mean+2*sd, b.Upper(), 1e-9)
	assert.InDelta(t, mean-2*sd, b.Lower(), 1e-9)
	assert.Equal(t, b.Middle(), b.Value())
}

func TestIndicatorInterface(t *testing.T) {
	for _, ind := range []Indicator{NewSMA(3), NewEMA(3), NewRSI(3), NewMACD(3, 5, 2), NewBollinger(3, 2)} {
		ind.Update(1)
		ind.Reset()
		assert.False(t, ind.Ready(), ind.Name())
		assert.Equal(t, 0.0, ind.Value(), ind.Name())
	}
}
