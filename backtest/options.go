package backtest

import (
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/metrics"
)

// DefaultAsset is the asset name used when none is configured.
const DefaultAsset = "ASSET"

// Options controls how the runner trades.
type Options struct {
	Asset   string
	Ledger  ledger.Config
	Sizer   Sizer
	Metrics metrics.Options
}

// DefaultOptions trades 95% of cash with the default ledger costs.
func DefaultOptions() Options {
	return Options{
		Asset:   DefaultAsset,
		Ledger:  ledger.DefaultConfig(),
		Sizer:   CashFraction(0.95),
		Metrics: metrics.DefaultOptions(),
	}
}

// OptionsFromConfig maps the backtest section of a config file.
func OptionsFromConfig(c config.BacktestConfig) Options {
	return Options{
		Asset: c.Asset,
		Ledger: ledger.Config{
			InitialCash:    c.InitialCash,
			CommissionRate: c.Commission,
			SlippageRate:   c.Slippage,
		},
		Sizer: CashFraction(c.PositionFraction),
		Metrics: metrics.Options{
			RiskFreeRate:   c.RiskFreeRate,
			PeriodsPerYear: c.PeriodsPerYear,
		},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Asset == "" {
		o.Asset = def.Asset
	}
	if o.Ledger == (ledger.Config{}) {
		o.Ledger = def.Ledger
	}
	if o.Sizer == nil {
		o.Sizer = def.Sizer
	}
	if o.Metrics.PeriodsPerYear <= 0 {
		o.Metrics.PeriodsPerYear = def.Metrics.PeriodsPerYear
	}
	return o
}
