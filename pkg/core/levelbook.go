package core

import (
	"cmp"
	"iter"

	"github.com/tidwall/btree"
)

type levelEntry[O any, P any] struct {
	order O
	level *priceLevel[O, P]
	live  bool
	bid   bool
}

// priceLevel is the FIFO queue of orders resting at one price
type priceLevel[O any, P any] struct {
	price   P
	entries []*levelEntry[O, P]
	head    int
	live    int
}

// compact drops cancelled entries, keeping arrival order
func (l *priceLevel[O, P]) compact() {
	n := 0
	for _, e := range l.entries[l.head:] {
		if e.live {
			l.entries[n] = e
			n++
		}
	}
	clear(l.entries[n:])
	l.entries = l.entries[:n]
	l.head = 0
}

// tidy compacts the queue once dead entries outnumber live ones by more than
// compactSlack
func (l *priceLevel[O, P]) tidy() {
	if len(l.entries) > 2*l.live+compactSlack {
		l.compact()
	}
}

// LevelBook is an order book keeping price levels in a B-tree ordered best
// first, with an id index for constant time cancel. It suits wide or sparse
// price domains where DenseBook would waste memory and VecBook would scan.
//
// Order ids are assumed unique among resting orders. With duplicates, the
// index follows the newest order: older ones keep their place and still
// trade, but Remove and Modify no longer reach them.
type LevelBook[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered] struct {
	bids  *btree.BTreeG[*priceLevel[O, P]]
	asks  *btree.BTreeG[*priceLevel[O, P]]
	index map[ID]*levelEntry[O, P]
	nbids int
	nasks int
}

// NewLevelBook creates an empty book
func NewLevelBook[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered]() *LevelBook[O, ID, Q, P] {
	bids := btree.NewBTreeG(func(a, b *priceLevel[O, P]) bool {
		return a.price > b.price
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel[O, P]) bool {
		return a.price < b.price
	})
	return &LevelBook[O, ID, Q, P]{
		bids:  bids,
		asks:  asks,
		index: make(map[ID]*levelEntry[O, P]),
	}
}

// Len returns the number of resting orders
func (b *LevelBook[O, ID, Q, P]) Len() int {
	return b.nbids + b.nasks
}

// IsEmpty reports whether the book holds no orders
func (b *LevelBook[O, ID, Q, P]) IsEmpty() bool {
	return b.Len() == 0
}

// Bids yields resting buy orders best first
func (b *LevelBook[O, ID, Q, P]) Bids() iter.Seq[O] {
	return levelOrders(b.bids)
}

// Asks yields resting sell orders best first
func (b *LevelBook[O, ID, Q, P]) Asks() iter.Seq[O] {
	return levelOrders(b.asks)
}

func levelOrders[O any, P any](levels *btree.BTreeG[*priceLevel[O, P]]) iter.Seq[O] {
	return func(yield func(O) bool) {
		levels.Scan(func(l *priceLevel[O, P]) bool {
			for _, e := range l.entries[l.head:] {
				if e.live && !yield(e.order) {
					return false
				}
			}
			return true
		})
	}
}

// BestBid returns the oldest order at the highest bid price
func (b *LevelBook[O, ID, Q, P]) BestBid() (O, bool) {
	return bestOf(b.bids)
}

// BestAsk returns the oldest order at the lowest ask price
func (b *LevelBook[O, ID, Q, P]) BestAsk() (O, bool) {
	return bestOf(b.asks)
}

func bestOf[O any, P any](levels *btree.BTreeG[*priceLevel[O, P]]) (O, bool) {
	if l, ok := levels.Min(); ok {
		for _, e := range l.entries[l.head:] {
			if e.live {
				return e.order, true
			}
		}
	}
	var zero O
	return zero, false
}

// Buy matches a buy order against the asks and rests what is left
func (b *LevelBook[O, ID, Q, P]) Buy(order O) []Fill[ID, Q, P] {
	return b.match(order, true)
}

// Sell matches a sell order against the bids and rests what is left
func (b *LevelBook[O, ID, Q, P]) Sell(order O) []Fill[ID, Q, P] {
	return b.match(order, false)
}

func (b *LevelBook[O, ID, Q, P]) match(taker O, buy bool) []Fill[ID, Q, P] {
	var zero Q
	remaining := taker.Quantity()
	if remaining <= zero {
		return nil
	}
	limit := taker.Price()

	makers, own := b.asks, b.bids
	if !buy {
		makers, own = b.bids, b.asks
	}

	var fills []Fill[ID, Q, P]
	for remaining > zero {
		level, ok := makers.Min()
		if !ok {
			break
		}
		if (buy && level.price > limit) || (!buy && level.price < limit) {
			break
		}

		for level.head < len(level.entries) && remaining > zero {
			e := level.entries[level.head]
			if !e.live {
				level.head++
				continue
			}
			maker := e.order
			available := maker.Quantity()
			if remaining < available {
				fills = append(fills, PartialFill(maker.ID(), remaining, maker.Price()))
				maker.SetQuantity(available - remaining)
				remaining = zero
				break
			}
			fills = append(fills, FullFill(maker.ID(), available, maker.Price()))
			remaining -= available
			b.detach(e)
			level.head++
		}
		if level.live == 0 {
			makers.Delete(level)
		} else {
			level.tidy()
		}
	}

	if remaining > zero {
		taker.SetQuantity(remaining)
		b.rest(taker, own, buy)
	}
	return fills
}

func (b *LevelBook[O, ID, Q, P]) rest(order O, levels *btree.BTreeG[*priceLevel[O, P]], bid bool) {
	price := order.Price()
	level, ok := levels.Get(&priceLevel[O, P]{price: price})
	if !ok {
		level = &priceLevel[O, P]{price: price}
		levels.Set(level)
	}
	e := &levelEntry[O, P]{order: order, level: level, live: true, bid: bid}
	level.entries = append(level.entries, e)
	level.live++
	b.index[order.ID()] = e
	if bid {
		b.nbids++
	} else {
		b.nasks++
	}
}

func (b *LevelBook[O, ID, Q, P]) detach(e *levelEntry[O, P]) {
	e.live = false
	e.level.live--
	if id := e.order.ID(); b.index[id] == e {
		delete(b.index, id)
	}
	if e.bid {
		b.nbids--
	} else {
		b.nasks--
	}
}

// Remove cancels the order with the given id
func (b *LevelBook[O, ID, Q, P]) Remove(id ID) (O, bool) {
	e, ok := b.index[id]
	if !ok {
		var zero O
		return zero, false
	}

	b.detach(e)

	levels := b.asks
	if e.bid {
		levels = b.bids
	}
	level := e.level
	if level.live == 0 {
		levels.Delete(level)
	} else {
		level.tidy()
	}
	return e.order, true
}

// Modify reduces the quantity of a resting order in place
func (b *LevelBook[O, ID, Q, P]) Modify(id ID, quantity Q) bool {
	e, ok := b.index[id]
	if !ok {
		return false
	}
	return reduce[O, ID, Q, P](e.order, quantity)
}
