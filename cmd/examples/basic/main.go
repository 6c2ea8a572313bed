package main

import (
	"fmt"
	"iter"

	"github.com/erain9/tickbook/pkg/core"
)

func main() {
	// Initialize an order book keyed, sized and priced in uint32
	book := core.NewSimpleBook()

	// Two sellers at 10, one at 11
	book.Sell(core.NewSimpleOrder(1, 10, 10))
	book.Sell(core.NewSimpleOrder(2, 5, 10))
	book.Sell(core.NewSimpleOrder(3, 7, 11))
	fmt.Printf("Resting orders: %d\n", book.Len())

	// A buyer sweeping through both levels
	buy := core.NewSimpleOrder(4, 20, 11)
	fills := book.Buy(buy)

	fmt.Printf("Processing buy order: %s\n", buy)
	for _, f := range fills {
		fmt.Printf("  %s\n", f)
	}
	fmt.Printf("Traded: %d\n", core.Traded(fills))

	if ask, ok := book.BestAsk(); ok {
		fmt.Printf("Best ask now: %s\n", ask)
	}

	// Reduce the remaining seller, then cancel it
	book.Modify(3, 1)
	if order, ok := book.Remove(3); ok {
		fmt.Printf("Canceled: %s\n", order)
	}

	fmt.Println("\nSummary of book:")
	fmt.Printf("- Bids: %d, Asks: %d\n", count(book.Bids()), count(book.Asks()))
}

func count(seq iter.Seq[*core.SimpleOrder]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}
