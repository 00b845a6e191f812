package strategies

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Consensus signals when at least Threshold members agree. Sell wins when
// both sides reach the threshold on the same bar.
type Consensus struct {
	Members   []Strategy
	Threshold int
}

// NewConsensus checks that threshold lies between 1 and len(members).
func NewConsensus(threshold int, members ...Strategy) (*Consensus, error) {
	if len(members) == 0 {
		return nil, errors.New("consensus: at least one strategy is required")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("consensus: threshold must be at least 1, got %d", threshold)
	}
	if threshold > len(members) {
		return nil, fmt.Errorf("consensus: threshold %d exceeds %d strategies", threshold, len(members))
	}
	return &Consensus{Members: members, Threshold: threshold}, nil
}

func (c *Consensus) Name() string {
	names := make([]string, len(c.Members))
	for i, m := range c.Members {
		names[i] = m.Name()
	}
	return fmt.Sprintf("consensus(%d of %s)", c.Threshold, strings.Join(names, ", "))
}

// Generate records each member's signal as <member>_signal plus buy_votes and
// sell_votes alongside the combined signal.
func (c *Consensus) Generate(f *market.Frame) (*market.Frame, error) {
	if _, err := closes(f); err != nil {
		return nil, err
	}

	n := f.Len()
	buys := make([]float64, n)
	sells := make([]float64, n)
	cols := make([]column, 0, len(c.Members)+2)

	for i, m := range c.Members {
		res, err := m.Generate(f)
		if err != nil {
			return nil, fmt.Errorf("consensus: %s: %w", m.Name(), err)
		}
		sig, err := res.Column(market.Signal)
		if err != nil {
			return nil, fmt.Errorf("consensus: %s: %w", m.Name(), err)
		}
		for j, v := range sig {
			switch v {
			case 1:
				buys[j]++
			case -1:
				sells[j]++
			}
		}
		key := fmt.Sprintf("%s_%d_signal", columnKey(m.Name()), i)
		cols = append(cols, column{key, append([]float64(nil), sig...)})
	}

	threshold := float64(c.Threshold)
	sig := make([]float64, n)
	for j := range sig {
		if buys[j] >= threshold {
			sig[j] = 1
		}
		if sells[j] >= threshold {
			sig[j] = -1
		}
	}

	cols = append(cols, column{"buy_votes", buys}, column{"sell_votes", sells})
	return emit(f, sig, cols...)
}
