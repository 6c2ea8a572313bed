package core

import (
	"fmt"
	"iter"
	"math"
)

// Tick is an integer price that can index a price ladder directly
type Tick interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// cancelled entries a level tolerates beyond twice its live count
const compactSlack = 16

type denseEntry[O any] struct {
	order O
	live  bool
	bid   bool
}

// denseLevel is a FIFO queue of the orders resting at one price. Dead entries
// stay in the queue until the matcher skips them or the level is compacted.
type denseLevel[O any] struct {
	entries []*denseEntry[O]
	head    int
	live    int
}

func (l *denseLevel[O]) push(e *denseEntry[O]) {
	l.entries = append(l.entries, e)
	l.live++
}

func (l *denseLevel[O]) reset() {
	clear(l.entries)
	l.entries = l.entries[:0]
	l.head = 0
	l.live = 0
}

// compact drops cancelled entries, keeping arrival order
func (l *denseLevel[O]) compact() {
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
// compactSlack, which bounds len(entries) at 2*live+compactSlack
func (l *denseLevel[O]) tidy() {
	if len(l.entries) > 2*l.live+compactSlack {
		l.compact()
	}
}

// DenseBook is an order book over a bounded integer price domain [0, maxPrice].
// Every price owns a FIFO queue per side, an id index gives constant time
// cancel and modify, and two cursors track the best bid and ask levels.
//
// Submitting an order priced above maxPrice panics; use Accepts to check.
//
// Order ids are assumed unique among resting orders. With duplicates, the
// index follows the newest order: older ones keep their place and still
// trade, but Remove and Modify no longer reach them.
type DenseBook[O Order[ID, Q, P], ID comparable, Q Quantity, P Tick] struct {
	maxPrice P
	bids     []denseLevel[O]
	asks     []denseLevel[O]
	index    map[ID]*denseEntry[O]

	// every live bid is at or below bidMax, every live ask at or above askMin
	bidMax P
	askMin P
	nbids  int
	nasks  int
}

// NewDenseBook creates an empty book accepting prices in [0, maxPrice].
// It allocates two levels per price and panics if maxPrice+1 does not fit
// in an int.
func NewDenseBook[O Order[ID, Q, P], ID comparable, Q Quantity, P Tick](maxPrice P) *DenseBook[O, ID, Q, P] {
	if uint64(maxPrice) >= math.MaxInt {
		panic(fmt.Sprintf("dense book: max price %v leaves no room for a ladder", maxPrice))
	}
	size := int(maxPrice) + 1
	return &DenseBook[O, ID, Q, P]{
		maxPrice: maxPrice,
		bids:     make([]denseLevel[O], size),
		asks:     make([]denseLevel[O], size),
		index:    make(map[ID]*denseEntry[O]),
		askMin:   maxPrice,
	}
}

// MaxPrice returns the highest accepted price
func (b *DenseBook[O, ID, Q, P]) MaxPrice() P {
	return b.maxPrice
}

// Accepts reports whether price is inside the book's domain
func (b *DenseBook[O, ID, Q, P]) Accepts(price P) bool {
	return price <= b.maxPrice
}

// Len returns the number of resting orders
func (b *DenseBook[O, ID, Q, P]) Len() int {
	return b.nbids + b.nasks
}

// IsEmpty reports whether the book holds no orders
func (b *DenseBook[O, ID, Q, P]) IsEmpty() bool {
	return b.Len() == 0
}

// BestBid returns the first live order of the highest bid level
func (b *DenseBook[O, ID, Q, P]) BestBid() (O, bool) {
	for o := range b.Bids() {
		return o, true
	}
	var zero O
	return zero, false
}

// BestAsk returns the first live order of the lowest ask level
func (b *DenseBook[O, ID, Q, P]) BestAsk() (O, bool) {
	for o := range b.Asks() {
		return o, true
	}
	var zero O
	return zero, false
}

// Bids yields resting buy orders best first
func (b *DenseBook[O, ID, Q, P]) Bids() iter.Seq[O] {
	return func(yield func(O) bool) {
		seen := 0
		for p := b.bidMax; seen < b.nbids; p-- {
			if !b.yieldLevel(&b.bids[p], &seen, yield) {
				return
			}
			if p == 0 {
				return
			}
		}
	}
}

// Asks yields resting sell orders best first
func (b *DenseBook[O, ID, Q, P]) Asks() iter.Seq[O] {
	return func(yield func(O) bool) {
		seen := 0
		for p := b.askMin; seen < b.nasks; p++ {
			if !b.yieldLevel(&b.asks[p], &seen, yield) {
				return
			}
			if p == b.maxPrice {
				return
			}
		}
	}
}

func (b *DenseBook[O, ID, Q, P]) yieldLevel(l *denseLevel[O], seen *int, yield func(O) bool) bool {
	if l.live == 0 {
		return true
	}
	for _, e := range l.entries[l.head:] {
		if !e.live {
			continue
		}
		*seen++
		if !yield(e.order) {
			return false
		}
	}
	return true
}

// Buy matches a buy order against the asks and rests what is left
func (b *DenseBook[O, ID, Q, P]) Buy(order O) []Fill[ID, Q, P] {
	var zero Q
	remaining := order.Quantity()
	if remaining <= zero {
		return nil
	}
	limit := b.checkPrice(order.Price())

	var fills []Fill[ID, Q, P]
	for b.nasks > 0 && b.askMin <= limit {
		remaining = b.drain(&b.asks[b.askMin], remaining, &fills)
		if remaining == zero {
			return fills
		}
		if b.askMin == limit {
			break
		}
		b.askMin++
	}

	order.SetQuantity(remaining)
	b.rest(order, true)
	return fills
}

// Sell matches a sell order against the bids and rests what is left
func (b *DenseBook[O, ID, Q, P]) Sell(order O) []Fill[ID, Q, P] {
	var zero Q
	remaining := order.Quantity()
	if remaining <= zero {
		return nil
	}
	limit := b.checkPrice(order.Price())

	var fills []Fill[ID, Q, P]
	for b.nbids > 0 && b.bidMax >= limit {
		remaining = b.drain(&b.bids[b.bidMax], remaining, &fills)
		if remaining == zero {
			return fills
		}
		if b.bidMax == limit {
			break
		}
		b.bidMax--
	}

	order.SetQuantity(remaining)
	b.rest(order, false)
	return fills
}

func (b *DenseBook[O, ID, Q, P]) checkPrice(price P) P {
	if price > b.maxPrice {
		panic(fmt.Sprintf("dense book: price %v outside [0, %v]", price, b.maxPrice))
	}
	return price
}

// drain trades remaining against one level in arrival order
func (b *DenseBook[O, ID, Q, P]) drain(l *denseLevel[O], remaining Q, fills *[]Fill[ID, Q, P]) Q {
	var zero Q
	for l.head < len(l.entries) && remaining > zero {
		e := l.entries[l.head]
		if !e.live {
			l.head++
			continue
		}

		maker := e.order
		available := maker.Quantity()
		if remaining < available {
			*fills = append(*fills, PartialFill(maker.ID(), remaining, maker.Price()))
			maker.SetQuantity(available - remaining)
			remaining = zero
			break
		}

		*fills = append(*fills, FullFill(maker.ID(), available, maker.Price()))
		remaining -= available
		b.detach(e)
		l.head++
	}
	if l.live == 0 {
		l.reset()
	} else {
		l.tidy()
	}
	return remaining
}

func (b *DenseBook[O, ID, Q, P]) rest(order O, bid bool) {
	e := &denseEntry[O]{order: order, live: true, bid: bid}
	price := order.Price()
	if bid {
		if b.nbids == 0 || price > b.bidMax {
			b.bidMax = price
		}
		b.bids[price].push(e)
		b.nbids++
	} else {
		if b.nasks == 0 || price < b.askMin {
			b.askMin = price
		}
		b.asks[price].push(e)
		b.nasks++
	}
	b.index[order.ID()] = e
}

// detach marks an entry dead and drops it from the index and the counters.
// The entry itself is left in its queue.
func (b *DenseBook[O, ID, Q, P]) detach(e *denseEntry[O]) *denseLevel[O] {
	e.live = false
	if id := e.order.ID(); b.index[id] == e {
		delete(b.index, id)
	}
	price := e.order.Price()
	var l *denseLevel[O]
	if e.bid {
		l = &b.bids[price]
		b.nbids--
	} else {
		l = &b.asks[price]
		b.nasks--
	}
	l.live--
	return l
}

// Remove cancels the order with the given id
func (b *DenseBook[O, ID, Q, P]) Remove(id ID) (O, bool) {
	e, ok := b.index[id]
	if !ok {
		var zero O
		return zero, false
	}
	l := b.detach(e)
	if l.live == 0 {
		l.reset()
	} else {
		l.tidy()
	}
	return e.order, true
}

// Modify reduces the quantity of a resting order in place
func (b *DenseBook[O, ID, Q, P]) Modify(id ID, quantity Q) bool {
	e, ok := b.index[id]
	if !ok {
		return false
	}
	return reduce[O, ID, Q, P](e.order, quantity)
}
