package ledger

import "time"

// Position is an open holding in one asset. Quantity is signed: positive for
// long, negative for short.
type Position struct {
	Asset      string    `json:"asset" yaml:"asset"`
	Quantity   float64   `json:"quantity" yaml:"quantity"`
	EntryPrice float64   `json:"entry_price" yaml:"entry_price"`
	EntryTime  time.Time `json:"entry_time" yaml:"entry_time"`
	MarkPrice  float64   `json:"mark_price" yaml:"mark_price"`

	// Commission paid on fills while the position has been open. It is
	// charged against the trade when the position closes.
	Commission float64 `json:"commission" yaml:"commission"`
}

func (p Position) Long() bool  { return p.Quantity > 0 }
func (p Position) Short() bool { return p.Quantity < 0 }

// MarketValue is the signed value of the holding at the mark price.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.MarkPrice
}

// UnrealizedPL is the gross profit of the holding at the mark price.
func (p Position) UnrealizedPL() float64 {
	return p.Quantity * (p.MarkPrice - p.EntryPrice)
}

// add merges qty units bought at price into a long position, averaging the
// entry price by quantity.
func (p *Position) add(qty, price float64) {
	total := p.Quantity + qty
	if total == 0 {
		return
	}
	p.EntryPrice = (p.EntryPrice*p.Quantity + price*qty) / total
	p.Quantity = total
}
