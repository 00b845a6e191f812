package ledger

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/backtester/internal/id"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Kind is the order type. Only market orders execute; limit orders are
// carried so callers can express them, and are rejected.
type Kind string

const (
	Market Kind = "market"
	Limit  Kind = "limit"
)

// Status is the lifecycle state of an order. Pending orders move to exactly
// one terminal state and never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusFilled   Status = "filled"
	StatusRejected Status = "rejected"
)

// Rejection reasons recorded on Order.Reason.
const (
	ReasonInsufficientCash     = "insufficient_cash"
	ReasonInsufficientPosition = "insufficient_position"
	ReasonInvalidQuantity      = "invalid_quantity"
	ReasonInvalidPrice         = "invalid_price"
	ReasonUnsupportedKind      = "unsupported_kind"
)

// Order is a request to buy or sell Quantity units of Asset.
type Order struct {
	ID         string                   `json:"id" yaml:"id"`
	Asset      string                   `json:"asset" yaml:"asset"`
	Side       Side                     `json:"side" yaml:"side"`
	Quantity   float64                  `json:"quantity" yaml:"quantity"`
	Kind       Kind                     `json:"kind" yaml:"kind"`
	LimitPrice optional.Option[float64] `json:"limit_price,omitempty" yaml:"-"`
	Time       time.Time                `json:"time" yaml:"time"`

	Status      Status  `json:"status" yaml:"status"`
	Reason      string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	FilledPrice float64 `json:"filled_price,omitempty" yaml:"filled_price,omitempty"`
	Commission  float64 `json:"commission,omitempty" yaml:"commission,omitempty"`
}

// NewMarketOrder returns a pending market order.
func NewMarketOrder(asset string, side Side, qty float64, ts time.Time) *Order {
	return &Order{
		ID:         id.At(ts),
		Asset:      asset,
		Side:       side,
		Quantity:   qty,
		Kind:       Market,
		LimitPrice: optional.None[float64](),
		Time:       ts,
		Status:     StatusPending,
	}
}

// NewLimitOrder returns a pending limit order.
func NewLimitOrder(asset string, side Side, qty, limit float64, ts time.Time) *Order {
	o := NewMarketOrder(asset, side, qty, ts)
	o.Kind = Limit
	o.LimitPrice = optional.Some(limit)
	return o
}

// Terminal reports whether the order has left the pending state.
func (o *Order) Terminal() bool {
	return o.Status != StatusPending
}

func (o *Order) fill(price, commission float64) {
	o.Status = StatusFilled
	o.FilledPrice = price
	o.Commission = commission
	o.Reason = ""
}

func (o *Order) reject(reason string) {
	o.Status = StatusRejected
	o.Reason = reason
}
