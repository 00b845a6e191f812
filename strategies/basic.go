package strategies

import "github.com/rustyeddy/backtester/market"

// Noop never trades.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Generate(f *market.Frame) (*market.Frame, error) {
	if _, err := closes(f); err != nil {
		return nil, err
	}
	return emit(f, make([]float64, f.Len()))
}

// BuyAndHold buys on the first bar and holds until the run ends.
type BuyAndHold struct{}

func (BuyAndHold) Name() string { return "buy-and-hold" }

func (BuyAndHold) Generate(f *market.Frame) (*market.Frame, error) {
	if _, err := closes(f); err != nil {
		return nil, err
	}
	sig := make([]float64, f.Len())
	sig[0] = 1
	return emit(f, sig)
}
