package marketmaker

import (
	"github.com/erain9/tickbook/pkg/core"
)

// Quote is one resting order a strategy wants on the book, priced in ticks
type Quote struct {
	Side     core.Side
	Price    uint32
	Quantity uint32
}

// Strategy calculates the quotes to place around a mid price
type Strategy interface {
	Quotes(mid uint32) []Quote
}

// LayeredSymmetricQuoting quotes Levels bid/ask pairs, the first pair
// HalfSpread ticks either side of mid and each further pair Step ticks wider
type LayeredSymmetricQuoting struct {
	Levels     int
	HalfSpread uint32
	Step       uint32
	Size       uint32
}

// NewLayeredSymmetricQuoting creates the strategy from a generator config
func NewLayeredSymmetricQuoting(cfg Config) *LayeredSymmetricQuoting {
	return &LayeredSymmetricQuoting{
		Levels:     cfg.Levels,
		HalfSpread: cfg.HalfSpread,
		Step:       cfg.Step,
		Size:       cfg.OrderSize,
	}
}

// Width is how far the outermost quote sits from mid
func (s *LayeredSymmetricQuoting) Width() uint32 {
	if s.Levels < 1 {
		return s.HalfSpread
	}
	return s.HalfSpread + uint32(s.Levels-1)*s.Step
}

// Quotes implements Strategy. Bid prices that would fall below one tick are
// skipped.
func (s *LayeredSymmetricQuoting) Quotes(mid uint32) []Quote {
	quotes := make([]Quote, 0, s.Levels*2)
	for i := 0; i < s.Levels; i++ {
		offset := s.HalfSpread + uint32(i)*s.Step
		if mid > offset {
			quotes = append(quotes, Quote{Side: core.Buy, Price: mid - offset, Quantity: s.Size})
		}
		quotes = append(quotes, Quote{Side: core.Sell, Price: mid + offset, Quantity: s.Size})
	}
	return quotes
}
