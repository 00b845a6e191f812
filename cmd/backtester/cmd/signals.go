package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

func newSignalsCmd(rc *rootConfig) *cobra.Command {
	var (
		o       overrides
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Write the strategy's signals and indicator columns as CSV",
		Long: `Signals runs only the signal generator and writes the price table with the
added indicator and signal columns. The output can be replayed with
"run --precomputed" or inspected in a spreadsheet.

Example:
  backtester signals --data data/aapl.csv --strategy rsi --output aapl-rsi.csv`,
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

			strat, err := strategies.New(cfg.Strategy)
			if err != nil {
				return fmt.Errorf("strategy: %w", err)
			}

			out, err := strat.Generate(f)
			if err != nil {
				return fmt.Errorf("%s: %w", strat.Name(), err)
			}

			if outPath == "" {
				return out.WriteCSV(cmd.OutOrStdout())
			}
			if err := market.SaveCSV(outPath, out); err != nil {
				return err
			}
			rc.log.Info("signals written", zap.String("strategy", strat.Name()), zap.String("path", outPath), zap.Int("rows", out.Len()))
			return nil
		},
	}

	o.dataFlags(cmd.Flags())
	o.strategyFlags(cmd.Flags())
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output CSV path (default stdout)")

	return cmd
}
