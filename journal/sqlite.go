package journal

import (
	"database/sql"
	"math"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// sqlite uses ? placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// equityChunk bounds the rows per INSERT to stay under SQLite's variable
// limit.
const equityChunk = 200

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) exec(b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = j.db.Exec(query, args...)
	return err
}

// An infinite profit factor is stored as NULL.
func nullableFactor(pf float64) sql.NullFloat64 {
	if math.IsInf(pf, 0) || math.IsNaN(pf) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: pf, Valid: true}
}

func (j *SQLite) RecordRun(r RunRecord) error {
	return j.exec(psql.Insert("runs").
		Columns(
			"run_id", "created", "strategy", "asset", "dataset", "config",
			"start_time", "end_time", "bars",
			"initial_capital", "final_capital", "net_pl", "return_pct",
			"sharpe", "max_dd", "max_dd_pct", "commission",
			"trades", "wins", "losses", "win_rate", "avg_win", "avg_loss", "profit_factor",
		).
		Values(
			r.RunID, r.Created, r.Strategy, r.Asset, r.Dataset, r.Config,
			r.Start, r.End, r.Bars,
			r.InitialCapital, r.FinalCapital, r.NetPL, r.ReturnPct,
			r.SharpeRatio, r.MaxDrawdown, r.MaxDDPct, r.Commission,
			r.Trades, r.Wins, r.Losses, r.WinRate, r.AvgWin, r.AvgLoss, nullableFactor(r.ProfitFactor),
		))
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	return j.exec(psql.Insert("trades").
		Columns(
			"run_id", "trade_id", "asset", "direction", "quantity",
			"entry_price", "exit_price", "open_time", "close_time",
			"pnl", "pnl_pct", "commission",
		).
		Values(
			t.RunID, t.TradeID, t.Asset, t.Direction, t.Quantity,
			t.EntryPrice, t.ExitPrice, t.OpenTime, t.CloseTime,
			t.PnL, t.PnLPercent, t.Commission,
		))
}

func (j *SQLite) RecordOrder(o OrderRecord) error {
	return j.exec(psql.Insert("orders").
		Columns(
			"run_id", "order_id", "time", "asset", "side", "kind",
			"quantity", "status", "reason", "filled_price", "commission",
		).
		Values(
			o.RunID, o.OrderID, o.Time, o.Asset, o.Side, o.Kind,
			o.Quantity, o.Status, o.Reason, o.FilledPrice, o.Commission,
		))
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	return j.exec(psql.Insert("equity").
		Columns("run_id", "time", "cash", "equity").
		Values(e.RunID, e.Time, e.Cash, e.Equity))
}

// RecordEquityBatch inserts a curve inside one transaction.
func (j *SQLite) RecordEquityBatch(snaps []EquitySnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	for start := 0; start < len(snaps); start += equityChunk {
		end := start + equityChunk
		if end > len(snaps) {
			end = len(snaps)
		}

		b := psql.Insert("equity").Columns("run_id", "time", "cash", "equity")
		for _, e := range snaps[start:end] {
			b = b.Values(e.RunID, e.Time, e.Cash, e.Equity)
		}
		query, args, err := b.ToSql()
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
