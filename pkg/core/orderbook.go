package core

import (
	"cmp"
	"iter"
)

// VecBook is an order book keeping each side in a sorted slice with the best
// order at the tail. Matching pops from the tail; cancel is a linear scan.
// The zero value is an empty book ready to use.
//
// Order ids are assumed unique among resting orders. With duplicates, Remove
// and Modify act on the first match, bids before asks.
type VecBook[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered] struct {
	bids side[O, ID, Q, P]
	asks side[O, ID, Q, P]
	init bool
}

// NewVecBook creates an empty book
func NewVecBook[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered]() *VecBook[O, ID, Q, P] {
	b := &VecBook[O, ID, Q, P]{}
	b.setup()
	return b
}

// NewSimpleBook creates an empty book of SimpleOrder
func NewSimpleBook() *SimpleBook {
	return NewVecBook[*SimpleOrder, uint32, uint32, uint32]()
}

func (b *VecBook[O, ID, Q, P]) setup() {
	if !b.init {
		b.bids.bid = true
		b.init = true
	}
}

// Len returns the number of resting orders
func (b *VecBook[O, ID, Q, P]) Len() int {
	return b.bids.len() + b.asks.len()
}

// IsEmpty reports whether the book holds no orders
func (b *VecBook[O, ID, Q, P]) IsEmpty() bool {
	return b.Len() == 0
}

// Bids yields resting buy orders from the highest price down
func (b *VecBook[O, ID, Q, P]) Bids() iter.Seq[O] {
	return b.bids.all()
}

// Asks yields resting sell orders from the lowest price up
func (b *VecBook[O, ID, Q, P]) Asks() iter.Seq[O] {
	return b.asks.all()
}

// BestBid returns the best resting buy order
func (b *VecBook[O, ID, Q, P]) BestBid() (O, bool) {
	return b.bids.best()
}

// BestAsk returns the best resting sell order
func (b *VecBook[O, ID, Q, P]) BestAsk() (O, bool) {
	return b.asks.best()
}

// Buy matches a buy order against the asks and rests what is left
func (b *VecBook[O, ID, Q, P]) Buy(order O) []Fill[ID, Q, P] {
	b.setup()
	return match(order, &b.asks, &b.bids)
}

// Sell matches a sell order against the bids and rests what is left
func (b *VecBook[O, ID, Q, P]) Sell(order O) []Fill[ID, Q, P] {
	b.setup()
	return match(order, &b.bids, &b.asks)
}

// Remove cancels the order with the given id
func (b *VecBook[O, ID, Q, P]) Remove(id ID) (O, bool) {
	if order, ok := b.bids.remove(id); ok {
		return order, true
	}
	return b.asks.remove(id)
}

// Modify reduces the quantity of a resting order without changing its priority
func (b *VecBook[O, ID, Q, P]) Modify(id ID, quantity Q) bool {
	for _, s := range []*side[O, ID, Q, P]{&b.bids, &b.asks} {
		if i := s.find(id); i >= 0 {
			return reduce[O, ID, Q, P](s.orders[i], quantity)
		}
	}
	return false
}

// reduce applies a quantity reduction when 0 < quantity < current
func reduce[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered](order O, quantity Q) bool {
	var zero Q
	if quantity <= zero || quantity >= order.Quantity() {
		return false
	}
	order.SetQuantity(quantity)
	return true
}

// match runs the crossing loop of a taker against the opposite side and rests
// the remainder on its own side
func match[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered](taker O, makers, own *side[O, ID, Q, P]) []Fill[ID, Q, P] {
	var zero Q
	remaining := taker.Quantity()
	if remaining <= zero {
		return nil
	}
	limit := taker.Price()

	var fills []Fill[ID, Q, P]
	for remaining > zero {
		maker, ok := makers.best()
		if !ok || !makers.crosses(maker.Price(), limit) {
			break
		}

		available := maker.Quantity()
		if remaining >= available {
			fills = append(fills, FullFill(maker.ID(), available, maker.Price()))
			makers.popBest()
			remaining -= available
			continue
		}

		fills = append(fills, PartialFill(maker.ID(), remaining, maker.Price()))
		maker.SetQuantity(available - remaining)
		remaining = zero
	}

	if remaining > zero {
		taker.SetQuantity(remaining)
		own.insert(taker)
	}
	return fills
}
