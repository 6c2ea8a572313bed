package marketmaker

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/erain9/tickbook/pkg/feed"
	"github.com/nikolaydubina/fpdecimal"
)

// ErrInvalidConfig is returned for a generator config that cannot produce a feed
var ErrInvalidConfig = errors.New("invalid generator config")

// MakerTrader is the trader id of the market maker's quotes; takers use ids
// above it
const MakerTrader = 1

// Config configures a Generator. Prices are in ticks of TickSize.
type Config struct {
	Seed       uint64
	TickSize   string
	Mid        uint32
	Levels     int
	HalfSpread uint32
	Step       uint32
	OrderSize  uint32
	// Volatility is the largest mid move per round, in ticks
	Volatility uint32
	// TakerRate is the chance per round of an aggressive order
	TakerRate float64
	Takers    int
}

// DefaultConfig returns a config quoting three levels around 100.00
func DefaultConfig() Config {
	return Config{
		Seed:       1,
		TickSize:   "0.01",
		Mid:        10000,
		Levels:     3,
		HalfSpread: 5,
		Step:       5,
		OrderSize:  100,
		Volatility: 3,
		TakerRate:  0.5,
		Takers:     8,
	}
}

// Generator produces a deterministic order log: each round the market maker
// pulls its quotes, the mid drifts, new quotes go up and a taker may cross.
// Order ids follow feed.Translator numbering, so the cancels it emits name
// the quotes they pull.
type Generator struct {
	strategy *LayeredSymmetricQuoting
	cfg      Config
	tick     fpdecimal.Decimal
	rng      *rand.Rand
	mid      uint32
	next     uint32
	live     []uint32
	buf      []feed.Record
	pending  []feed.Record
}

// NewGenerator creates a generator
func NewGenerator(cfg Config) (*Generator, error) {
	tick, err := fpdecimal.FromString(cfg.TickSize)
	if err != nil || tick.LessThanOrEqual(fpdecimal.Zero) {
		return nil, fmt.Errorf("%w: tick size %q", ErrInvalidConfig, cfg.TickSize)
	}
	if cfg.Levels < 1 || cfg.OrderSize == 0 {
		return nil, fmt.Errorf("%w: levels and order size must be positive", ErrInvalidConfig)
	}
	if cfg.TakerRate < 0 || cfg.TakerRate > 1 {
		return nil, fmt.Errorf("%w: taker rate %v", ErrInvalidConfig, cfg.TakerRate)
	}
	if cfg.Takers < 1 {
		cfg.Takers = 1
	}

	strategy := NewLayeredSymmetricQuoting(cfg)
	if cfg.Mid <= strategy.Width() {
		return nil, fmt.Errorf("%w: mid %d must exceed quote width %d", ErrInvalidConfig, cfg.Mid, strategy.Width())
	}

	return &Generator{
		strategy: strategy,
		cfg:      cfg,
		tick:     tick,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		mid:      cfg.Mid,
	}, nil
}

// Mid returns the current mid price in ticks
func (g *Generator) Mid() uint32 {
	return g.mid
}

// Generate returns the next n records. Rounds cut off by n carry over to the
// next call, so the feed does not depend on how it is chunked.
func (g *Generator) Generate(n int) []feed.Record {
	records := make([]feed.Record, 0, n)
	for len(records) < n {
		if len(g.pending) == 0 {
			g.round()
		}
		k := min(n-len(records), len(g.pending))
		records = append(records, g.pending[:k]...)
		g.pending = g.pending[k:]
	}
	return records
}

// round fills pending with one round of cancels, quotes and maybe a taker
func (g *Generator) round() {
	g.buf = g.buf[:0]
	for _, id := range g.live {
		g.buf = append(g.buf, feed.Record{Trader: MakerTrader, Price: fpdecimal.Zero, Quantity: id})
	}
	g.live = g.live[:0]

	g.drift()
	for _, q := range g.strategy.Quotes(g.mid) {
		g.live = append(g.live, g.next)
		g.order(MakerTrader, q.Side, q.Price, q.Quantity)
	}

	if g.rng.Float64() < g.cfg.TakerRate {
		g.taker()
	}
	g.pending = g.buf
}

// drift moves the mid by up to Volatility ticks, keeping every quote above zero
func (g *Generator) drift() {
	if g.cfg.Volatility == 0 {
		return
	}
	span := int64(g.cfg.Volatility)
	move := g.rng.Int64N(2*span+1) - span
	mid := int64(g.mid) + move
	if floor := int64(g.strategy.Width()) + 1; mid < floor {
		mid = floor
	}
	g.mid = uint32(mid)
}

// taker sends an order priced through the first level, for up to the
// whole depth of that side
func (g *Generator) taker() {
	side := core.Buy
	if g.rng.IntN(2) == 0 {
		side = core.Sell
	}
	reach := g.strategy.HalfSpread + g.rng.Uint32N(g.strategy.Width()-g.strategy.HalfSpread+1)
	price := g.mid + reach
	if side == core.Sell {
		price = g.mid - reach
	}
	quantity := 1 + g.rng.Uint32N(g.cfg.OrderSize*uint32(g.cfg.Levels))
	trader := uint32(MakerTrader + 1 + g.rng.IntN(g.cfg.Takers))
	g.order(trader, side, price, quantity)
}

func (g *Generator) order(trader uint32, side core.Side, ticks, quantity uint32) {
	g.next++
	g.buf = append(g.buf, feed.Record{
		Trader:   trader,
		Side:     side,
		Price:    fpdecimal.FromInt(int64(ticks)).Mul(g.tick),
		Quantity: quantity,
	})
}
