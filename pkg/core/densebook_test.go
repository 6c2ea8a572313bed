package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickOrder struct {
	id    int
	qty   int
	price uint8
}

func (o *tickOrder) ID() int           { return o.id }
func (o *tickOrder) Quantity() int     { return o.qty }
func (o *tickOrder) SetQuantity(q int) { o.qty = q }
func (o *tickOrder) Price() uint8      { return o.price }

func newTickBook() *DenseBook[*tickOrder, int, int, uint8] {
	return NewDenseBook[*tickOrder, int, int, uint8](math.MaxUint8)
}

func TestDenseBookHighestPrice(t *testing.T) {
	book := newTickBook()
	book.Sell(&tickOrder{id: 1, qty: 2, price: math.MaxUint8})
	book.Sell(&tickOrder{id: 2, qty: 2, price: math.MaxUint8 - 1})

	fills := book.Buy(&tickOrder{id: 3, qty: 5, price: math.MaxUint8})
	require.Len(t, fills, 2)
	assert.Equal(t, 2, fills[0].MakerID)
	assert.Equal(t, 1, fills[1].MakerID)
	assert.Equal(t, uint8(math.MaxUint8), fills[1].Price)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, 3, bid.ID())
	assert.Equal(t, 1, bid.Quantity())
	assert.Equal(t, uint8(math.MaxUint8), bid.Price())
	_, ok = book.BestAsk()
	assert.False(t, ok)
}

func TestDenseBookLowestPrice(t *testing.T) {
	book := newTickBook()
	book.Buy(&tickOrder{id: 1, qty: 1, price: 0})
	book.Buy(&tickOrder{id: 2, qty: 1, price: 1})

	fills := book.Sell(&tickOrder{id: 3, qty: 3, price: 0})
	require.Len(t, fills, 2)
	assert.Equal(t, 2, fills[0].MakerID)
	assert.Equal(t, 1, fills[1].MakerID)
	assert.Equal(t, uint8(0), fills[1].Price)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint8(0), ask.Price())
	assert.Equal(t, 1, ask.Quantity())

	// a bid at 0 now crosses the resting ask at 0
	fills = book.Buy(&tickOrder{id: 4, qty: 1, price: 0})
	assert.Equal(t, []Fill[int, int, uint8]{FullFill[int, int, uint8](3, 1, 0)}, fills)
	assert.True(t, book.IsEmpty())
}

func TestDenseBookNoCrossAtEdges(t *testing.T) {
	book := newTickBook()
	book.Sell(&tickOrder{id: 1, qty: 1, price: math.MaxUint8})
	assert.Empty(t, book.Buy(&tickOrder{id: 2, qty: 1, price: 0}))
	assert.Equal(t, 2, book.Len())

	var bids, asks []int
	for o := range book.Bids() {
		bids = append(bids, o.ID())
	}
	for o := range book.Asks() {
		asks = append(asks, o.ID())
	}
	assert.Equal(t, []int{2}, bids)
	assert.Equal(t, []int{1}, asks)
}

func TestDenseBookRejectsOutOfRangePrice(t *testing.T) {
	book := NewDenseBook[*SimpleOrder, uint32, uint32, uint32](100)
	assert.True(t, book.Accepts(100))
	assert.False(t, book.Accepts(101))
	assert.Equal(t, uint32(100), book.MaxPrice())

	assert.Panics(t, func() {
		book.Buy(NewSimpleOrder(1, 1, 101))
	})
	assert.True(t, book.IsEmpty())
}

func TestDenseBookCursorRecovery(t *testing.T) {
	book := NewDenseBook[*SimpleOrder, uint32, uint32, uint32](100)
	book.Sell(NewSimpleOrder(1, 1, 40))
	book.Sell(NewSimpleOrder(2, 1, 60))
	book.Remove(1)

	// best ask must be found above the stale cursor
	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint32(2), ask.ID())

	fills := book.Buy(NewSimpleOrder(3, 1, 70))
	assert.Equal(t, []SimpleFill{FullFill[uint32, uint32, uint32](2, 1, 60)}, fills)

	book.Sell(NewSimpleOrder(4, 1, 10))
	ask, _ = book.BestAsk()
	assert.Equal(t, uint32(4), ask.ID())
}

type wideOrder struct {
	id    int
	qty   int
	price uint64
}

func (o *wideOrder) ID() int           { return o.id }
func (o *wideOrder) Quantity() int     { return o.qty }
func (o *wideOrder) SetQuantity(q int) { o.qty = q }
func (o *wideOrder) Price() uint64     { return o.price }

func TestNewDenseBookRejectsUnaddressableDomain(t *testing.T) {
	assert.Panics(t, func() {
		NewDenseBook[*wideOrder, int, int, uint64](math.MaxUint64)
	})
	assert.Panics(t, func() {
		NewDenseBook[*wideOrder, int, int, uint64](math.MaxInt)
	})
	assert.NotPanics(t, func() {
		NewDenseBook[*wideOrder, int, int, uint64](1 << 10)
	})
}

func TestDenseBookQueueStaysBounded(t *testing.T) {
	book := NewDenseBook[*SimpleOrder, uint32, uint32, uint32](100)
	book.Sell(NewSimpleOrder(0, 1, 50))

	// each round rests a new ask behind the queue and fills the oldest one
	id := uint32(1)
	for range 20000 {
		book.Sell(NewSimpleOrder(id, 1, 50))
		fills := book.Buy(NewSimpleOrder(id+1, 1, 50))
		require.Len(t, fills, 1)
		id += 2

		l := &book.asks[50]
		require.Equal(t, 1, l.live)
		require.LessOrEqual(t, len(l.entries), 2*l.live+compactSlack)
	}
	assert.Equal(t, 1, book.Len())
	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, id-2, ask.ID())
}
