package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/metrics"
)

func newJournalCmd(rc *rootConfig) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the run journal",
		Long: `Query runs, trades and equity stored in the SQLite journal.

Subcommands:
  runs   - List recent runs
  show   - Print a run's summary and trades
  org    - Render a run as an Org-mode report
  trade  - Print one trade as an Org-mode entry

Examples:
  backtester journal runs --limit 5
  backtester journal show <run-id>
  backtester journal org <run-id> -o run.org`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite journal DB (default from config)")

	open := func() (*journal.SQLite, error) {
		path := dbPath
		if path == "" {
			path = rc.cfg.Journal.DBPath
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s %-16s %-20s %-10s %7s %9s %12s\n", "RUN", "CREATED", "STRATEGY", "ASSET", "TRADES", "RETURN", "FINAL")
			for _, r := range runs {
				fmt.Fprintf(w, "%-26s %-16s %-20s %-10s %7d %8.2f%% %12s\n",
					r.RunID, r.Created.Local().Format("2006-01-02 15:04"), r.Strategy, r.Asset,
					r.Trades, r.ReturnPct, metrics.Money(r.FinalCapital))
			}
			return nil
		},
	}
	runsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run's summary and trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(args[0])
			if err != nil {
				return err
			}
			trades, err := j.ListTrades(run.RunID)
			if err != nil {
				return fmt.Errorf("list trades: %w", err)
			}

			w := cmd.OutOrStdout()
			metrics.PrintSummary(w, metrics.Header{
				RunID:    run.RunID,
				Strategy: run.Strategy,
				Asset:    run.Asset,
				Dataset:  run.Dataset,
				Start:    run.Start,
				End:      run.End,
			}, runResult(run))

			if len(trades) == 0 {
				return nil
			}
			fmt.Fprintf(w, "\n%-20s %-20s %-6s %12s %12s %12s %12s\n", "OPEN", "CLOSE", "DIR", "QTY", "ENTRY", "EXIT", "P/L")
			for _, t := range trades {
				fmt.Fprintf(w, "%-20s %-20s %-6s %12.4f %12.4f %12.4f %12s\n",
					t.OpenTime.Format("2006-01-02 15:04"), t.CloseTime.Format("2006-01-02 15:04"),
					t.Direction, t.Quantity, t.EntryPrice, t.ExitPrice, metrics.Money(t.PnL))
			}
			return nil
		},
	}

	var output string
	orgCmd := &cobra.Command{
		Use:   "org <run-id>",
		Short: "Render a run as an Org-mode report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(args[0])
			if err != nil {
				return err
			}
			trades, err := j.ListTrades(run.RunID)
			if err != nil {
				return fmt.Errorf("list trades: %w", err)
			}

			if output == "" {
				return journal.WriteRunOrg(cmd.OutOrStdout(), run, trades)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			return journal.SaveRunOrg(output, run, trades)
		},
	}
	orgCmd.Flags().StringVarP(&output, "output", "o", "", "write to this path instead of stdout")

	tradeCmd := &cobra.Command{
		Use:   "trade <trade-id>",
		Short: "Print one trade as an Org-mode entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open()
			if err != nil {
				return err
			}
			defer j.Close()

			rec, err := j.GetTrade(args[0])
			if err != nil {
				return fmt.Errorf("get trade: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
			return nil
		},
	}

	cmd.AddCommand(runsCmd, showCmd, orgCmd, tradeCmd)
	return cmd
}

// runResult rebuilds the printable statistics of a stored run.
func runResult(r journal.RunRecord) metrics.Result {
	return metrics.Result{
		TotalPnL:           r.NetPL,
		TotalReturnPercent: r.ReturnPct,
		SharpeRatio:        r.SharpeRatio,
		MaxDrawdown:        r.MaxDrawdown,
		MaxDrawdownPercent: r.MaxDDPct,
		TotalTrades:        r.Trades,
		WinningTrades:      r.Wins,
		LosingTrades:       r.Losses,
		WinRate:            r.WinRate,
		AverageWin:         r.AvgWin,
		AverageLoss:        r.AvgLoss,
		ProfitFactor:       r.ProfitFactor,
		InitialCapital:     r.InitialCapital,
		FinalCapital:       r.FinalCapital,
		TotalCommission:    r.Commission,
	}
}
