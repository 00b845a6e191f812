// Package config loads and validates backtest configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// BacktestConfig contains account and cost parameters
type BacktestConfig struct {
	Asset            string  `json:"asset" yaml:"asset" validate:"required" jsonschema:"default=ASSET"`
	InitialCash      float64 `json:"initial_cash" yaml:"initial_cash" validate:"gt=0" jsonschema:"exclusiveMinimum=0,default=10000"`
	Commission       float64 `json:"commission" yaml:"commission" validate:"gte=0,lt=1" jsonschema:"minimum=0,exclusiveMaximum=1,default=0.001"`
	Slippage         float64 `json:"slippage" yaml:"slippage" validate:"gte=0,lt=1" jsonschema:"minimum=0,exclusiveMaximum=1,default=0.0005"`
	PositionFraction float64 `json:"position_fraction" yaml:"position_fraction" validate:"gt=0,lte=1" jsonschema:"exclusiveMinimum=0,maximum=1,default=0.95"`
	RiskFreeRate     float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear   int     `json:"periods_per_year" yaml:"periods_per_year" validate:"gt=0" jsonschema:"minimum=1,default=252"`
}

// StrategyConfig selects a signal generator. Zero numeric fields take the
// strategy's defaults.
type StrategyConfig struct {
	Name      string           `json:"name" yaml:"name" validate:"required,oneof=noop buy-and-hold sma ema rsi macd bollinger consensus" jsonschema:"enum=noop,enum=buy-and-hold,enum=sma,enum=ema,enum=rsi,enum=macd,enum=bollinger,enum=consensus"`
	Period    int              `json:"period,omitempty" yaml:"period,omitempty" validate:"gte=0"`
	Fast      int              `json:"fast,omitempty" yaml:"fast,omitempty" validate:"gte=0"`
	Slow      int              `json:"slow,omitempty" yaml:"slow,omitempty" validate:"gte=0"`
	Signal    int              `json:"signal,omitempty" yaml:"signal,omitempty" validate:"gte=0"`
	Crossover bool             `json:"crossover,omitempty" yaml:"crossover,omitempty"`
	Volume    bool             `json:"volume_confirm,omitempty" yaml:"volume_confirm,omitempty"`
	Lower     float64          `json:"lower,omitempty" yaml:"lower,omitempty" validate:"gte=0,lte=100"`
	Upper     float64          `json:"upper,omitempty" yaml:"upper,omitempty" validate:"gte=0,lte=100"`
	NumStd    float64          `json:"num_std,omitempty" yaml:"num_std,omitempty" validate:"gte=0"`
	Threshold int              `json:"threshold,omitempty" yaml:"threshold,omitempty" validate:"gte=0"`
	Members   []StrategyConfig `json:"members,omitempty" yaml:"members,omitempty" validate:"dive"`
}

// DataConfig points at the price history
type DataConfig struct {
	Path     string `json:"path" yaml:"path"`
	Validate bool   `json:"validate" yaml:"validate"`
	Clean    bool   `json:"clean" yaml:"clean"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type" validate:"oneof=sqlite csv none" jsonschema:"enum=sqlite,enum=csv,enum=none"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := base()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = base()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy = Default().Strategy
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}

	if err := c.Strategy.check("strategy"); err != nil {
		return err
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for sqlite type")
	}
	if c.Journal.Type == "csv" && c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir required for csv type")
	}
	return nil
}

// check applies the rules the struct tags cannot express.
func (s StrategyConfig) check(path string) error {
	if s.Fast > 0 && s.Slow > 0 && s.Fast >= s.Slow {
		return fmt.Errorf("%s.fast must be less than %s.slow", path, path)
	}
	if s.Lower > 0 && s.Upper > 0 && s.Lower >= s.Upper {
		return fmt.Errorf("%s.lower must be less than %s.upper", path, path)
	}
	if s.Name == "consensus" {
		if len(s.Members) == 0 {
			return fmt.Errorf("%s.members required for consensus", path)
		}
		if s.Threshold < 1 || s.Threshold > len(s.Members) {
			return fmt.Errorf("%s.threshold must be between 1 and %d", path, len(s.Members))
		}
	}
	for i, m := range s.Members {
		if err := m.check(fmt.Sprintf("%s.members[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "gt":
		if fe.Param() == "0" {
			return fmt.Errorf("%s must be positive", field)
		}
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "lt":
		return fmt.Errorf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("%s failed %s validation", field, fe.Tag())
	}
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "backtester configuration"
	return json.MarshalIndent(s, "", "  ")
}

// base is the defaults a file is decoded over. Strategy parameters are not
// inherited, so a file naming only a strategy gets that strategy's defaults.
func base() *Config {
	c := Default()
	c.Strategy = StrategyConfig{}
	return c
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			Asset:            "ASSET",
			InitialCash:      10000,
			Commission:       0.001,
			Slippage:         0.0005,
			PositionFraction: 0.95,
			RiskFreeRate:     0,
			PeriodsPerYear:   252,
		},
		Strategy: StrategyConfig{
			Name:   "sma",
			Period: 20,
		},
		Data: DataConfig{
			Validate: true,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtest.sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
