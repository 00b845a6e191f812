package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
)

func newConfigCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate, validate or describe configuration files",
		Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file
  schema   - Print the JSON schema of the configuration

Examples:
  backtester config init -o backtest.yaml
  backtester config validate -f backtest.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(w, "\nEdit the file and run with:")
			fmt.Fprintf(w, "  backtester run -c %s --data <prices.csv>\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "backtest.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(w, "  Asset: %s ($%.2f, commission %.4f, slippage %.4f)\n",
				cfg.Backtest.Asset, cfg.Backtest.InitialCash, cfg.Backtest.Commission, cfg.Backtest.Slippage)
			fmt.Fprintf(w, "  Strategy: %s\n", cfg.Strategy.Name)
			fmt.Fprintf(w, "  Journal: %s\n", cfg.Journal.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.AddCommand(initCmd, validateCmd, schemaCmd)
	return cmd
}
