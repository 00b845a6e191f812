// Package ledger keeps the books of a single simulated trading account:
// cash, open positions, closed trades and the equity curve.
package ledger

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/internal/logger"
)

// Ledger is the account state of one backtest. It is owned by a single
// simulation and is not safe for concurrent use.
type Ledger struct {
	cfg Config
	log *zap.Logger

	cash       float64
	commission float64
	positions  map[string]*Position
	trades     []Trade
	equity     []EquityPoint
}

// New returns a ledger holding cfg.InitialCash and nothing else.
func New(cfg Config, log *zap.Logger) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{
		cfg:       cfg,
		log:       logger.OrNop(log),
		cash:      cfg.InitialCash,
		positions: make(map[string]*Position),
	}, nil
}

func (l *Ledger) Config() Config           { return l.cfg }
func (l *Ledger) Cash() float64            { return l.cash }
func (l *Ledger) InitialCash() float64     { return l.cfg.InitialCash }
func (l *Ledger) TotalCommission() float64 { return l.commission }

// Position returns a copy of the open position in asset.
func (l *Ledger) Position(asset string) (Position, bool) {
	p, ok := l.positions[asset]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions ordered by asset.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Trades returns the closed trades in the order they closed.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// EquityCurve returns the recorded equity snapshots.
func (l *Ledger) EquityCurve() []EquityPoint {
	out := make([]EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}

// MarketValue is the signed value of all open positions at their marks.
func (l *Ledger) MarketValue() float64 {
	var v float64
	for _, p := range l.positions {
		v += p.MarketValue()
	}
	return v
}

// Equity is cash plus the market value of open positions.
func (l *Ledger) Equity() float64 {
	return l.cash + l.MarketValue()
}

// RealizedPL is the sum of closed trade profits net of commission.
func (l *Ledger) RealizedPL() float64 {
	var pl float64
	for _, t := range l.trades {
		pl += t.PnL
	}
	return pl
}

// UnrealizedPL is the gross profit of open positions at their marks.
func (l *Ledger) UnrealizedPL() float64 {
	var pl float64
	for _, p := range l.positions {
		pl += p.UnrealizedPL()
	}
	return pl
}

// ExecutionPrice applies slippage against the taker: buys pay more, sells
// receive less.
func (l *Ledger) ExecutionPrice(side Side, price float64) float64 {
	if side == Buy {
		return price * (1 + l.cfg.SlippageRate)
	}
	return price * (1 - l.cfg.SlippageRate)
}

// Commission is the fee charged on a fill of qty units at price.
func (l *Ledger) Commission(price, qty float64) float64 {
	return price * qty * l.cfg.CommissionRate
}

// Execute fills o against marketPrice at ts. It returns true when the order
// filled. A rejected order records its reason and leaves the ledger untouched.
// Orders that are no longer pending are ignored. A buy against a short must
// cover its exact quantity; partial covers and reversals are rejected with
// ReasonInvalidQuantity. The runner itself never opens shorts.
func (l *Ledger) Execute(o *Order, marketPrice float64, ts time.Time) bool {
	if o == nil {
		return false
	}
	if o.Terminal() {
		l.log.Warn("order already settled",
			zap.String("order", o.ID),
			zap.String("status", string(o.Status)))
		return false
	}

	switch {
	case o.Kind != Market:
		return l.rejectOrder(o, ReasonUnsupportedKind)
	case !(o.Quantity > 0) || math.IsInf(o.Quantity, 0):
		return l.rejectOrder(o, ReasonInvalidQuantity)
	case !(marketPrice > 0) || math.IsInf(marketPrice, 0):
		return l.rejectOrder(o, ReasonInvalidPrice)
	}

	switch o.Side {
	case Buy:
		return l.executeBuy(o, marketPrice, ts)
	case Sell:
		return l.executeSell(o, marketPrice, ts)
	default:
		return l.rejectOrder(o, ReasonUnsupportedKind)
	}
}

func (l *Ledger) executeBuy(o *Order, marketPrice float64, ts time.Time) bool {
	p, ok := l.positions[o.Asset]
	if ok && p.Short() && o.Quantity != -p.Quantity {
		return l.rejectOrder(o, ReasonInvalidQuantity)
	}

	price := l.ExecutionPrice(Buy, marketPrice)
	fee := l.Commission(price, o.Quantity)
	cost := price*o.Quantity + fee

	if cost > l.cash {
		return l.rejectOrder(o, ReasonInsufficientCash)
	}

	l.cash -= cost
	l.commission += fee

	switch {
	case !ok:
		l.positions[o.Asset] = &Position{
			Asset:      o.Asset,
			Quantity:   o.Quantity,
			EntryPrice: price,
			EntryTime:  ts,
			MarkPrice:  price,
			Commission: fee,
		}
	case p.Short():
		// Covering a short closes it outright.
		l.closePosition(p, price, ts, p.Commission+fee)
	default:
		p.add(o.Quantity, price)
		p.Commission += fee
	}

	o.fill(price, fee)
	l.log.Debug("order filled",
		zap.String("order", o.ID),
		zap.String("asset", o.Asset),
		zap.String("side", string(o.Side)),
		zap.Float64("qty", o.Quantity),
		zap.Float64("price", price),
		zap.Float64("commission", fee),
		zap.Float64("cash", l.cash))
	return true
}

func (l *Ledger) executeSell(o *Order, marketPrice float64, ts time.Time) bool {
	p, ok := l.positions[o.Asset]
	if !ok || p.Quantity < o.Quantity {
		return l.rejectOrder(o, ReasonInsufficientPosition)
	}

	price := l.ExecutionPrice(Sell, marketPrice)
	fee := l.Commission(price, o.Quantity)

	l.cash += price*o.Quantity - fee
	l.commission += fee

	if p.Quantity == o.Quantity {
		l.closePosition(p, price, ts, p.Commission+fee)
	} else {
		p.Quantity -= o.Quantity
		p.Commission += fee
	}

	o.fill(price, fee)
	l.log.Debug("order filled",
		zap.String("order", o.ID),
		zap.String("asset", o.Asset),
		zap.String("side", string(o.Side)),
		zap.Float64("qty", o.Quantity),
		zap.Float64("price", price),
		zap.Float64("commission", fee),
		zap.Float64("cash", l.cash))
	return true
}

func (l *Ledger) rejectOrder(o *Order, reason string) bool {
	o.reject(reason)
	fields := []zap.Field{
		zap.String("order", o.ID),
		zap.String("asset", o.Asset),
		zap.String("side", string(o.Side)),
		zap.Float64("qty", o.Quantity),
		zap.String("reason", reason),
		zap.Float64("cash", l.cash),
	}
	if limit, err := o.LimitPrice.Take(); err == nil {
		fields = append(fields, zap.Float64("limit", limit))
	}
	l.log.Warn("order rejected", fields...)
	return false
}

// closePosition records the round trip and removes p. commission is the total
// paid over the life of the position including the closing fill.
func (l *Ledger) closePosition(p *Position, exit float64, ts time.Time, commission float64) {
	qty := math.Abs(p.Quantity)

	dir := Long
	gross := (exit - p.EntryPrice) * qty
	if p.Short() {
		dir = Short
		gross = (p.EntryPrice - exit) * qty
	}
	pnl := gross - commission

	var pct float64
	if basis := p.EntryPrice * qty; basis != 0 {
		pct = pnl / basis * 100
	}

	tr := Trade{
		ID:         id.At(ts),
		Asset:      p.Asset,
		Direction:  dir,
		Quantity:   qty,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		EntryTime:  p.EntryTime,
		ExitTime:   ts,
		PnL:        pnl,
		PnLPercent: pct,
		Commission: commission,
		Duration:   ts.Sub(p.EntryTime),
	}
	l.trades = append(l.trades, tr)
	delete(l.positions, p.Asset)

	l.log.Info("trade closed",
		zap.String("trade", tr.ID),
		zap.String("asset", tr.Asset),
		zap.String("direction", string(tr.Direction)),
		zap.Float64("qty", tr.Quantity),
		zap.Float64("entry", tr.EntryPrice),
		zap.Float64("exit", tr.ExitPrice),
		zap.Float64("pnl", tr.PnL))
}

// Mark sets the mark price of the open position in asset. Assets without a
// position and non-positive prices are ignored.
func (l *Ledger) Mark(asset string, price float64) {
	p, ok := l.positions[asset]
	if !ok || !(price > 0) || math.IsInf(price, 0) {
		return
	}
	p.MarkPrice = price
}

// Snapshot appends the current cash and equity to the equity curve and
// returns the recorded point.
func (l *Ledger) Snapshot(ts time.Time) EquityPoint {
	pt := EquityPoint{Time: ts, Cash: l.cash, Equity: l.Equity()}
	l.equity = append(l.equity, pt)
	return pt
}
