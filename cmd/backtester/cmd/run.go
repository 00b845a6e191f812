package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/strategies"
)

func newRunCmd(rc *rootConfig) *cobra.Command {
	var (
		o           overrides
		outPath     string
		orgPath     string
		precomputed bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backtest",
		Long: `Run loads a price file, generates signals with the configured strategy,
simulates the trades and prints the performance summary.

Examples:
  backtester run --data data/aapl.csv --strategy sma --crossover --fast 10 --slow 30
  backtester run -c backtest.yaml --out result.yaml --org run.org
  backtester run --data aapl-rsi.csv --precomputed`,
		Args: cobra.NoArgs,
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

			f, err := loadFrame(cfg.Data.Path, cfg.Data, from, to, rc.log)
			if err != nil {
				return err
			}

			var gen backtest.SignalGenerator
			if !precomputed {
				strat, err := strategies.New(cfg.Strategy)
				if err != nil {
					return fmt.Errorf("strategy: %w", err)
				}
				gen = strat
			}

			runner := backtest.NewRunner(gen, backtest.OptionsFromConfig(cfg.Backtest), rc.log)
			rep, err := runner.Run(context.Background(), f)
			if err != nil {
				return fmt.Errorf("backtest: %w", err)
			}

			metrics.PrintSummary(cmd.OutOrStdout(), rep.Header(cfg.Data.Path), rep.Result)

			if outPath != "" {
				if err := metrics.WriteYAML(outPath, rep.Result); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nResult written to %s\n", outPath)
			}

			j, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			var run journal.RunRecord
			if j != nil {
				defer j.Close()
				if run, err = journal.Persist(j, rep, cfg.Data.Path, configBytes(cfg)); err != nil {
					return fmt.Errorf("journal: %w", err)
				}
				rc.log.Info("run journaled", zap.String("run", rep.RunID), zap.String("journal", cfg.Journal.Type))
			} else {
				run = journal.NewRunRecord(rep, cfg.Data.Path, configBytes(cfg))
			}

			if orgPath != "" {
				trades := make([]journal.TradeRecord, 0, len(rep.Trades))
				for _, t := range rep.Trades {
					trades = append(trades, journal.NewTradeRecord(rep.RunID, t))
				}
				if err := journal.SaveRunOrg(orgPath, run, trades); err != nil {
					return fmt.Errorf("org: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Org report written to %s\n", orgPath)
			}
			return nil
		},
	}

	o.dataFlags(cmd.Flags())
	o.backtestFlags(cmd.Flags())
	o.strategyFlags(cmd.Flags())
	o.journalFlags(cmd.Flags())
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the result as YAML to this path")
	cmd.Flags().StringVar(&orgPath, "org", "", "write an Org-mode report to this path")
	cmd.Flags().BoolVar(&precomputed, "precomputed", false, "trade the data file's own signal column")

	return cmd
}
