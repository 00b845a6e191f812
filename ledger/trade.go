package ledger

import (
	"time"
)

// Direction is the side of a closed round trip.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Trade is a completed round trip.
type Trade struct {
	ID         string        `json:"id" yaml:"id"`
	Asset      string        `json:"asset" yaml:"asset"`
	Direction  Direction     `json:"direction" yaml:"direction"`
	Quantity   float64       `json:"quantity" yaml:"quantity"`
	EntryPrice float64       `json:"entry_price" yaml:"entry_price"`
	ExitPrice  float64       `json:"exit_price" yaml:"exit_price"`
	EntryTime  time.Time     `json:"entry_time" yaml:"entry_time"`
	ExitTime   time.Time     `json:"exit_time" yaml:"exit_time"`
	PnL        float64       `json:"pnl" yaml:"pnl"`
	PnLPercent float64       `json:"pnl_percent" yaml:"pnl_percent"`
	Commission float64       `json:"commission" yaml:"commission"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Winner reports whether the trade made money after commission.
func (t Trade) Winner() bool {
	return t.PnL > 0
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time   time.Time `json:"time" yaml:"time"`
	Cash   float64   `json:"cash" yaml:"cash"`
	Equity float64   `json:"equity" yaml:"equity"`
}
