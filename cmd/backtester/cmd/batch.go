package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/strategies"
)

func newBatchCmd(rc *rootConfig) *cobra.Command {
	var (
		o       overrides
		workers int
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Run the same backtest over several price files in parallel",
		Long: `Batch runs one independent backtest per data file. Each run has its own
ledger; a failing file is reported without stopping the others.

Example:
  backtester batch -c backtest.yaml --workers 4 data/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.cfg
			o.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			from, to, err := parseRange(o.from, o.to)
			if err != nil {
				return err
			}

			jobs := make([]backtest.Job, 0, len(args))
			for _, path := range args {
				f, err := loadFrame(path, cfg.Data, from, to, rc.log)
				if err != nil {
					return err
				}
				strat, err := strategies.New(cfg.Strategy)
				if err != nil {
					return fmt.Errorf("strategy: %w", err)
				}
				jobs = append(jobs, backtest.Job{
					Name:   path,
					Frame:  f,
					Runner: backtest.NewRunner(strat, backtest.OptionsFromConfig(cfg.Backtest), rc.log),
				})
			}

			j, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			if j != nil {
				defer j.Close()
			}

			bar := progressbar.NewOptions(len(jobs),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("backtesting"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetVisibility(!quiet),
			)

			var journalErr error
			results, err := backtest.RunBatch(context.Background(), jobs, workers, func(res backtest.BatchResult) {
				_ = bar.Add(1)
				if res.Err != nil {
					rc.log.Warn("backtest failed", zap.String("file", res.Job), zap.Error(res.Err))
					return
				}
				if j == nil || journalErr != nil {
					return
				}
				if _, err := journal.Persist(j, res.Report, res.Job, configBytes(cfg)); err != nil {
					journalErr = fmt.Errorf("journal %s: %w", res.Job, err)
				}
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}

			printBatch(cmd, results)
			return journalErr
		},
	}

	o.dataFlags(cmd.Flags())
	o.backtestFlags(cmd.Flags())
	o.strategyFlags(cmd.Flags())
	o.journalFlags(cmd.Flags())
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "maximum backtests in flight")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	_ = cmd.Flags().MarkHidden("data")

	return cmd
}

func printBatch(cmd *cobra.Command, results []backtest.BatchResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n%-24s %7s %10s %8s %9s %12s\n", "DATASET", "TRADES", "RETURN", "SHARPE", "MAX DD", "FINAL")
	for _, res := range results {
		name := filepath.Base(res.Job)
		if res.Err != nil {
			fmt.Fprintf(w, "%-24s error: %v\n", name, res.Err)
			continue
		}
		r := res.Report
		fmt.Fprintf(w, "%-24s %7d %9.2f%% %8.2f %8.2f%% %12s\n",
			name, r.TotalTrades, r.TotalReturnPercent, r.SharpeRatio, r.MaxDrawdownPercent, metrics.Money(r.FinalCapital))
	}
}
