package ledger

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned for configurations the ledger cannot run with.
var ErrInvalidConfig = errors.New("ledger: invalid config")

// Config holds the account parameters of a Ledger.
type Config struct {
	InitialCash    float64 `json:"initial_cash" yaml:"initial_cash" validate:"gt=0"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate" validate:"gte=0,lt=1"`
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate" validate:"gte=0,lt=1"`
}

// DefaultConfig is 10,000 in cash, 0.1% commission and 0.05% slippage.
func DefaultConfig() Config {
	return Config{
		InitialCash:    10000,
		CommissionRate: 0.001,
		SlippageRate:   0.0005,
	}
}

var validate = validator.New()

// Validate checks the config, wrapping ErrInvalidConfig on failure.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must satisfy %s=%s (got %v)",
				ErrInvalidConfig, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
