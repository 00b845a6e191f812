// Package cmd is the backtester command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// rootConfig carries the persistent flags and what PersistentPreRunE builds
// from them.
type rootConfig struct {
	ConfigPath string
	LogLevel   string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd returns the backtester command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rc := &rootConfig{}

	cmd := &cobra.Command{
		Use:   "backtester",
		Short: "Backtest trading strategies against historical price data",
		Long: `Backtester runs signal-driven strategies over OHLCV price history.

It provides tools for:
  - Running a single backtest and printing its performance summary
  - Running many datasets in parallel
  - Writing the generated signals for inspection
  - Journaling runs, trades and equity curves to SQLite or CSV
  - Rendering runs as Org-mode reports`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&rc.ConfigPath, "config", "c", "", "path to config file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if rc.ConfigPath != "" {
			var err error
			if cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
		}
		rc.cfg = cfg

		level := cfg.Logging.Level
		if rc.LogLevel != "" {
			level = rc.LogLevel
		}
		log, err := logger.New(level)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		rc.log = log
		return nil
	}

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.log != nil {
			_ = rc.log.Sync()
		}
	}

	cmd.AddCommand(
		newRunCmd(rc),
		newBatchCmd(rc),
		newSignalsCmd(rc),
		newConfigCmd(rc),
		newJournalCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "backtester %s\n", Version)
		},
	})

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
