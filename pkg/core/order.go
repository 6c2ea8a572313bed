package core

import (
	"cmp"
	"fmt"
	"strings"
)

// Side represents buy or sell side of the order
type Side int

// Order sides
const (
	Sell Side = iota
	Buy
)

// String returns side as string
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an order of side s matches against
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide parses a side name. Bid/Buy and Ask/Sell are accepted in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "buy", "b":
		return Buy, nil
	case "ask", "sell", "offer", "s":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Quantity is the set of numeric types an order quantity can be expressed in.
// Quantities are expected to be non-negative.
type Quantity interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Order is the capability a book needs from a limit order. The book reads the
// id, quantity and price, and writes the quantity back when the order is
// partially filled. Price must never change while the order rests.
type Order[ID comparable, Q Quantity, P cmp.Ordered] interface {
	ID() ID
	Quantity() Q
	SetQuantity(Q)
	Price() P
}

// SimpleOrder is a limit order with 32-bit id, quantity and price
type SimpleOrder struct {
	id       uint32
	quantity uint32
	price    uint32
}

// NewSimpleOrder creates a new order
func NewSimpleOrder(id, quantity, price uint32) *SimpleOrder {
	return &SimpleOrder{id: id, quantity: quantity, price: price}
}

// ID returns the order id
func (o *SimpleOrder) ID() uint32 {
	return o.id
}

// Quantity returns the open quantity
func (o *SimpleOrder) Quantity() uint32 {
	return o.quantity
}

// SetQuantity sets the open quantity
func (o *SimpleOrder) SetQuantity(q uint32) {
	o.quantity = q
}

// Price returns the limit price
func (o *SimpleOrder) Price() uint32 {
	return o.price
}

// String implements fmt.Stringer
func (o *SimpleOrder) String() string {
	return fmt.Sprintf("order[id=%d qty=%d price=%d]", o.id, o.quantity, o.price)
}

// SimpleBook is a VecBook of SimpleOrder
type SimpleBook = VecBook[*SimpleOrder, uint32, uint32, uint32]

// SimpleFill is a Fill against a SimpleOrder maker
type SimpleFill = Fill[uint32, uint32, uint32]
