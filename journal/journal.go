// Package journal persists backtest runs, their trades, orders and equity
// curves.
package journal

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/ledger"
)

// RunRecord is the summary row of one backtest.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Strategy string
	Asset    string
	Dataset  string
	Config   []byte

	Start time.Time
	End   time.Time
	Bars  int

	InitialCapital float64
	FinalCapital   float64
	NetPL          float64
	ReturnPct      float64
	SharpeRatio    float64
	MaxDrawdown    float64
	MaxDDPct       float64
	Commission     float64

	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64

	Notes []string
}

// TradeRecord is a closed round trip.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Asset      string
	Direction  string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64
	PnLPercent float64
	Commission float64
}

// OrderRecord is a submitted order and how it settled.
type OrderRecord struct {
	RunID       string
	OrderID     string
	Time        time.Time
	Asset       string
	Side        string
	Kind        string
	Quantity    float64
	Status      string
	Reason      string
	FilledPrice float64
	Commission  float64
}

// EquitySnapshot is one point of a run's equity curve.
type EquitySnapshot struct {
	RunID  string
	Time   time.Time
	Cash   float64
	Equity float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordOrder(OrderRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// equityBatcher is implemented by journals that can store a whole curve in
// one go.
type equityBatcher interface {
	RecordEquityBatch([]EquitySnapshot) error
}

// NewRunRecord summarizes a report. cfg is the serialized configuration the
// run used, if any.
func NewRunRecord(rep backtest.Report, dataset string, cfg []byte) RunRecord {
	return RunRecord{
		RunID:          rep.RunID,
		Created:        time.Now().UTC(),
		Strategy:       rep.Strategy,
		Asset:          rep.Asset,
		Dataset:        dataset,
		Config:         cfg,
		Start:          rep.Start,
		End:            rep.End,
		Bars:           rep.Bars,
		InitialCapital: rep.InitialCapital,
		FinalCapital:   rep.FinalCapital,
		NetPL:          rep.TotalPnL,
		ReturnPct:      rep.TotalReturnPercent,
		SharpeRatio:    rep.SharpeRatio,
		MaxDrawdown:    rep.MaxDrawdown,
		MaxDDPct:       rep.MaxDrawdownPercent,
		Commission:     rep.TotalCommission,
		Trades:         rep.TotalTrades,
		Wins:           rep.WinningTrades,
		Losses:         rep.LosingTrades,
		WinRate:        rep.WinRate,
		AvgWin:         rep.AverageWin,
		AvgLoss:        rep.AverageLoss,
		ProfitFactor:   rep.ProfitFactor,
	}
}

// NewTradeRecord converts a ledger trade for storage.
func NewTradeRecord(runID string, t ledger.Trade) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Asset:      t.Asset,
		Direction:  string(t.Direction),
		Quantity:   t.Quantity,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   t.EntryTime,
		CloseTime:  t.ExitTime,
		PnL:        t.PnL,
		PnLPercent: t.PnLPercent,
		Commission: t.Commission,
	}
}

func orderRecord(runID string, o ledger.Order) OrderRecord {
	return OrderRecord{
		RunID:       runID,
		OrderID:     o.ID,
		Time:        o.Time,
		Asset:       o.Asset,
		Side:        string(o.Side),
		Kind:        string(o.Kind),
		Quantity:    o.Quantity,
		Status:      string(o.Status),
		Reason:      o.Reason,
		FilledPrice: o.FilledPrice,
		Commission:  o.Commission,
	}
}

// Persist writes a report and everything it carries to j.
func Persist(j Journal, rep backtest.Report, dataset string, cfg []byte) (RunRecord, error) {
	run := NewRunRecord(rep, dataset, cfg)
	if err := j.RecordRun(run); err != nil {
		return run, err
	}
	for _, t := range rep.Trades {
		if err := j.RecordTrade(NewTradeRecord(rep.RunID, t)); err != nil {
			return run, err
		}
	}
	for _, o := range rep.Orders {
		if err := j.RecordOrder(orderRecord(rep.RunID, o)); err != nil {
			return run, err
		}
	}

	snaps := make([]EquitySnapshot, len(rep.EquityCurve))
	for i, p := range rep.EquityCurve {
		snaps[i] = EquitySnapshot{RunID: rep.RunID, Time: p.Time, Cash: p.Cash, Equity: p.Equity}
	}
	if b, ok := j.(equityBatcher); ok {
		return run, b.RecordEquityBatch(snaps)
	}
	for _, s := range snaps {
		if err := j.RecordEquity(s); err != nil {
			return run, err
		}
	}
	return run, nil
}
