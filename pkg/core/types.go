package core

import (
	"cmp"
	"fmt"
	"iter"
)

// Fill is one trade between an incoming order and a resting maker
type Fill[ID comparable, Q Quantity, P cmp.Ordered] struct {
	// Id of the resting order that traded
	MakerID ID
	// Quantity traded
	Quantity Q
	// Price of the trade, always the maker's price
	Price P
	// Whether the maker was fully consumed and left the book
	Done bool
}

// FullFill creates a fill that consumed the maker
func FullFill[ID comparable, Q Quantity, P cmp.Ordered](id ID, quantity Q, price P) Fill[ID, Q, P] {
	return Fill[ID, Q, P]{MakerID: id, Quantity: quantity, Price: price, Done: true}
}

// PartialFill creates a fill that left the maker resting with a smaller quantity
func PartialFill[ID comparable, Q Quantity, P cmp.Ordered](id ID, quantity Q, price P) Fill[ID, Q, P] {
	return Fill[ID, Q, P]{MakerID: id, Quantity: quantity, Price: price}
}

// String implements fmt.Stringer
func (f Fill[ID, Q, P]) String() string {
	return fmt.Sprintf("fill[maker=%v qty=%v price=%v done=%t]", f.MakerID, f.Quantity, f.Price, f.Done)
}

// Traded returns the summed quantity of fills
func Traded[ID comparable, Q Quantity, P cmp.Ordered](fills []Fill[ID, Q, P]) Q {
	var total Q
	for _, f := range fills {
		total += f.Quantity
	}
	return total
}

// Book is a single-instrument limit order book with price-time priority.
//
// Buy and Sell run the whole crossing loop before returning: every fill in
// the returned slice has already been applied, and any unmatched remainder
// rests on the submitter's side at its limit price. A book is not safe for
// concurrent use.
type Book[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered] interface {
	// Len returns the number of resting orders on both sides
	Len() int
	// IsEmpty reports whether no order rests
	IsEmpty() bool
	// Bids yields resting buy orders best first
	Bids() iter.Seq[O]
	// Asks yields resting sell orders best first
	Asks() iter.Seq[O]
	// BestBid returns the highest priority buy order
	BestBid() (O, bool)
	// BestAsk returns the highest priority sell order
	BestAsk() (O, bool)
	// Buy matches a buy order against the asks
	Buy(order O) []Fill[ID, Q, P]
	// Sell matches a sell order against the bids
	Sell(order O) []Fill[ID, Q, P]
	// Remove cancels the resting order with the given id
	Remove(id ID) (O, bool)
	// Modify reduces the quantity of a resting order. Only 0 < quantity < current is accepted.
	Modify(id ID, quantity Q) bool
}

// Submit routes an order to Buy or Sell
func Submit[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered](book Book[O, ID, Q, P], side Side, order O) []Fill[ID, Q, P] {
	if side == Buy {
		return book.Buy(order)
	}
	return book.Sell(order)
}
