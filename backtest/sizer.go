package backtest

import "math"

// Sizer decides how many units an entry buys.
type Sizer interface {
	Quantity(cash, price float64) float64
}

// CashFraction spends a fixed fraction of available cash. The remainder
// covers slippage and commission.
type CashFraction float64

func (f CashFraction) Quantity(cash, price float64) float64 {
	if !(price > 0) || !(cash > 0) || math.IsInf(price, 0) {
		return 0
	}
	return cash * float64(f) / price
}

// FixedQuantity always buys the same number of units.
type FixedQuantity float64

func (q FixedQuantity) Quantity(cash, price float64) float64 {
	return float64(q)
}
