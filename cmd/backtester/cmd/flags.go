package cmd

import (
	"github.com/spf13/pflag"

	"github.com/rustyeddy/backtester/config"
)

// overrides are command-line values that replace config file settings when
// the flag was given.
type overrides struct {
	data     string
	from, to string

	asset      string
	cash       float64
	commission float64
	slippage   float64
	fraction   float64

	strategy  string
	period    int
	fast      int
	slow      int
	crossover bool

	journalType string
	dbPath      string
	noJournal   bool
}

func (o *overrides) dataFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.data, "data", "d", "", "price CSV (.csv, .csv.xz, .csv.lzma)")
	fs.StringVar(&o.from, "from", "", "first bar to include (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&o.to, "to", "", "stop before this time (RFC3339 or YYYY-MM-DD)")
}

func (o *overrides) backtestFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.asset, "asset", "", "asset name recorded on orders and trades")
	fs.Float64Var(&o.cash, "cash", 0, "initial cash")
	fs.Float64Var(&o.commission, "commission", 0, "commission rate per trade value (0.001 = 0.1%)")
	fs.Float64Var(&o.slippage, "slippage", 0, "slippage rate applied to execution price")
	fs.Float64Var(&o.fraction, "fraction", 0, "fraction of cash committed per entry")
}

func (o *overrides) strategyFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.strategy, "strategy", "s", "", "strategy name (noop, buy-and-hold, sma, ema, rsi, macd, bollinger)")
	fs.IntVar(&o.period, "period", 0, "indicator period")
	fs.IntVar(&o.fast, "fast", 0, "fast period (crossover and macd)")
	fs.IntVar(&o.slow, "slow", 0, "slow period (crossover and macd)")
	fs.BoolVar(&o.crossover, "crossover", false, "use a fast/slow crossover instead of price vs average")
}

func (o *overrides) journalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.journalType, "journal", "", "journal type: sqlite|csv|none")
	fs.StringVar(&o.dbPath, "db", "", "path to SQLite journal DB")
	fs.BoolVar(&o.noJournal, "no-journal", false, "do not journal the run")
}

// apply copies the flags that were set onto cfg.
func (o *overrides) apply(fs *pflag.FlagSet, cfg *config.Config) {
	changed := fs.Changed

	if changed("data") {
		cfg.Data.Path = o.data
	}
	if changed("asset") {
		cfg.Backtest.Asset = o.asset
	}
	if changed("cash") {
		cfg.Backtest.InitialCash = o.cash
	}
	if changed("commission") {
		cfg.Backtest.Commission = o.commission
	}
	if changed("slippage") {
		cfg.Backtest.Slippage = o.slippage
	}
	if changed("fraction") {
		cfg.Backtest.PositionFraction = o.fraction
	}

	if changed("strategy") && o.strategy != cfg.Strategy.Name {
		cfg.Strategy = config.StrategyConfig{Name: o.strategy}
	}
	if changed("period") {
		cfg.Strategy.Period = o.period
	}
	if changed("fast") {
		cfg.Strategy.Fast = o.fast
	}
	if changed("slow") {
		cfg.Strategy.Slow = o.slow
	}
	if changed("crossover") {
		cfg.Strategy.Crossover = o.crossover
	}

	if changed("journal") {
		cfg.Journal.Type = o.journalType
	}
	if changed("db") {
		cfg.Journal.DBPath = o.dbPath
		if !changed("journal") {
			cfg.Journal.Type = "sqlite"
		}
	}
	if o.noJournal {
		cfg.Journal.Type = "none"
	}
}
