package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	runsHeader = []string{
		"run_id", "created", "strategy", "asset", "dataset", "start", "end", "bars",
		"initial_capital", "final_capital", "net_pl", "return_pct", "sharpe",
		"max_dd", "max_dd_pct", "commission", "trades", "wins", "losses",
		"win_rate", "avg_win", "avg_loss", "profit_factor",
	}
	tradesHeader = []string{
		"run_id", "trade_id", "asset", "direction", "quantity", "entry_price",
		"exit_price", "open_time", "close_time", "pnl", "pnl_pct", "commission",
	}
	ordersHeader = []string{
		"run_id", "order_id", "time", "asset", "side", "kind", "quantity",
		"status", "reason", "filled_price", "commission",
	}
	equityHeader = []string{"run_id", "time", "cash", "equity"}
)

// CSVJournal appends runs.csv, trades.csv, orders.csv and equity.csv in a
// directory. Headers are written when a file is first created.
type CSVJournal struct {
	runs, trades, orders, equity *csv.Writer
	files                        []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	j := &CSVJournal{}
	open := func(name string, header []string) (*csv.Writer, error) {
		path := filepath.Join(dir, name)
		_, statErr := os.Stat(path)
		fresh := errors.Is(statErr, os.ErrNotExist)

		fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fh)

		w := csv.NewWriter(fh)
		if fresh {
			if err := w.Write(header); err != nil {
				return nil, err
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, err
			}
		}
		return w, nil
	}

	var err error
	if j.runs, err = open("runs.csv", runsHeader); err != nil {
		j.Close()
		return nil, err
	}
	if j.trades, err = open("trades.csv", tradesHeader); err != nil {
		j.Close()
		return nil, err
	}
	if j.orders, err = open("orders.csv", ordersHeader); err != nil {
		j.Close()
		return nil, err
	}
	if j.equity, err = open("equity.csv", equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	return write(j.runs, []string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Strategy,
		r.Asset,
		r.Dataset,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		f(r.InitialCapital),
		f(r.FinalCapital),
		f(r.NetPL),
		f(r.ReturnPct),
		f(r.SharpeRatio),
		f(r.MaxDrawdown),
		f(r.MaxDDPct),
		f(r.Commission),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		f(r.WinRate),
		f(r.AvgWin),
		f(r.AvgLoss),
		f(r.ProfitFactor),
	})
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Asset,
		t.Direction,
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.PnL),
		f(t.PnLPercent),
		f(t.Commission),
	})
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	return write(j.orders, []string{
		o.RunID,
		o.OrderID,
		o.Time.Format(time.RFC3339),
		o.Asset,
		o.Side,
		o.Kind,
		f(o.Quantity),
		o.Status,
		o.Reason,
		f(o.FilledPrice),
		f(o.Commission),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return write(j.equity, []string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.Equity),
	})
}

func (j *CSVJournal) Close() error {
	var errs []error
	for _, w := range []*csv.Writer{j.runs, j.trades, j.orders, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		errs = append(errs, w.Error())
	}
	for _, fh := range j.files {
		errs = append(errs, fh.Close())
	}
	return errors.Join(errs...)
}

// f formats a float with six decimals; infinities are written as "inf".
func f(x float64) string {
	s := strconv.FormatFloat(x, 'f', 6, 64)
	return strings.ToLower(strings.TrimPrefix(s, "+"))
}
