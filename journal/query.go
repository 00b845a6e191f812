package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
)

var runColumns = []string{
	"run_id", "created", "strategy", "asset", "dataset", "config",
	"start_time", "end_time", "bars",
	"initial_capital", "final_capital", "net_pl", "return_pct",
	"sharpe", "max_dd", "max_dd_pct", "commission",
	"trades", "wins", "losses", "win_rate", "avg_win", "avg_loss", "profit_factor",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r  RunRecord
		pf sql.NullFloat64
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Asset, &r.Dataset, &r.Config,
		&r.Start, &r.End, &r.Bars,
		&r.InitialCapital, &r.FinalCapital, &r.NetPL, &r.ReturnPct,
		&r.SharpeRatio, &r.MaxDrawdown, &r.MaxDDPct, &r.Commission,
		&r.Trades, &r.Wins, &r.Losses, &r.WinRate, &r.AvgWin, &r.AvgLoss, &pf,
	)
	if err != nil {
		return r, err
	}
	r.ProfitFactor = pf.Float64
	if !pf.Valid {
		r.ProfitFactor = math.Inf(1)
	}
	return r, nil
}

func (j *SQLite) query(b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return j.db.Query(query, args...)
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	query, args, err := psql.Select(runColumns...).From("runs").
		Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return RunRecord{}, err
	}

	r, err := scanRun(j.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	b := psql.Select(runColumns...).From("runs").OrderBy("created DESC", "run_id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	rows, err := j.query(b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns a run's trades in closing order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.query(psql.Select(
		"run_id", "trade_id", "asset", "direction", "quantity",
		"entry_price", "exit_price", "open_time", "close_time",
		"pnl", "pnl_pct", "commission",
	).From("trades").Where(sq.Eq{"run_id": runID}).OrderBy("close_time ASC", "trade_id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(
			&t.RunID, &t.TradeID, &t.Asset, &t.Direction, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
			&t.PnL, &t.PnLPercent, &t.Commission,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	query, args, err := psql.Select(
		"run_id", "trade_id", "asset", "direction", "quantity",
		"entry_price", "exit_price", "open_time", "close_time",
		"pnl", "pnl_pct", "commission",
	).From("trades").Where(sq.Eq{"trade_id": tradeID}).ToSql()
	if err != nil {
		return TradeRecord{}, err
	}

	var t TradeRecord
	err = j.db.QueryRow(query, args...).Scan(
		&t.RunID, &t.TradeID, &t.Asset, &t.Direction, &t.Quantity,
		&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
		&t.PnL, &t.PnLPercent, &t.Commission,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return t, nil
}

// ListOrders returns a run's orders in submission order.
func (j *SQLite) ListOrders(runID string) ([]OrderRecord, error) {
	rows, err := j.query(psql.Select(
		"run_id", "order_id", "time", "asset", "side", "kind",
		"quantity", "status", "reason", "filled_price", "commission",
	).From("orders").Where(sq.Eq{"run_id": runID}).OrderBy("time ASC", "order_id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(
			&o.RunID, &o.OrderID, &o.Time, &o.Asset, &o.Side, &o.Kind,
			&o.Quantity, &o.Status, &o.Reason, &o.FilledPrice, &o.Commission,
		); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns a run's equity curve in time order.
func (j *SQLite) ListEquity(runID string) ([]EquitySnapshot, error) {
	rows, err := j.query(psql.Select("run_id", "time", "cash", "equity").
		From("equity").Where(sq.Eq{"run_id": runID}).OrderBy("time ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Cash, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
