package feed

import (
	"fmt"
	"math"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/nikolaydubina/fpdecimal"
)

// Kind is what an action does to the book
type Kind int

// Action kinds
const (
	KindBuy Kind = iota
	KindSell
	KindCancel
)

// String returns kind as string
func (k Kind) String() string {
	switch k {
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Action is a record translated into a book operation
type Action struct {
	Kind     Kind
	Order    core.SimpleOrder
	CancelID uint32
}

// NewOrder returns a fresh copy of the action's order, so one action list can
// be replayed many times
func (a *Action) NewOrder() *core.SimpleOrder {
	o := a.Order
	return &o
}

// String implements fmt.Stringer
func (a Action) String() string {
	if a.Kind == KindCancel {
		return fmt.Sprintf("cancel %d", a.CancelID)
	}
	return fmt.Sprintf("%s %d x %d @ %d", a.Kind, a.Order.ID(), a.Order.Quantity(), a.Order.Price())
}

// Translator turns records into actions. Orders get sequential ids from 0 in
// log order; cancellations do not consume an id. Decimal prices are
// converted to integer ticks.
type Translator struct {
	next uint32
	tick fpdecimal.Decimal
}

// NewTranslator creates a translator for prices quoted in multiples of tickSize
func NewTranslator(tickSize string) (*Translator, error) {
	tick, err := fpdecimal.FromString(tickSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTickSize, tickSize, err)
	}
	if tick.LessThanOrEqual(fpdecimal.Zero) {
		return nil, fmt.Errorf("%w: %q must be positive", ErrInvalidTickSize, tickSize)
	}
	return &Translator{tick: tick}, nil
}

// NextID returns the id the next order will get
func (t *Translator) NextID() uint32 {
	return t.next
}

// Translate converts one record
func (t *Translator) Translate(r Record) (Action, error) {
	if r.IsCancel() {
		return Action{Kind: KindCancel, CancelID: r.Quantity}, nil
	}

	price, err := t.Ticks(r.Price)
	if err != nil {
		return Action{}, err
	}

	kind := KindSell
	if r.Side == core.Buy {
		kind = KindBuy
	}
	order := core.NewSimpleOrder(t.next, r.Quantity, price)
	t.next++
	return Action{Kind: kind, Order: *order}, nil
}

// TranslateAll converts records in order, stopping at the first error
func (t *Translator) TranslateAll(records []Record) ([]Action, error) {
	actions := make([]Action, 0, len(records))
	for i, r := range records {
		a, err := t.Translate(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Ticks converts a decimal price to a whole number of ticks
func (t *Translator) Ticks(price fpdecimal.Decimal) (uint32, error) {
	if price.LessThan(fpdecimal.Zero) {
		return 0, fmt.Errorf("%w: %s is negative", ErrPriceRange, price)
	}
	ticks := math.Round(price.Float64() / t.tick.Float64())
	if ticks > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s", ErrPriceRange, price)
	}
	if !fpdecimal.FromInt(int64(ticks)).Mul(t.tick).Equal(price) {
		return 0, fmt.Errorf("%w: %s with tick %s", ErrOffTick, price, t.tick)
	}
	return uint32(ticks), nil
}
