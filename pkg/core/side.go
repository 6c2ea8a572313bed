package core

import (
	"cmp"
	"iter"
	"slices"
	"sort"
)

// side keeps the resting orders of one side sorted from worst to best, so
// the best order is always the last element
type side[O Order[ID, Q, P], ID comparable, Q Quantity, P cmp.Ordered] struct {
	orders []O
	bid    bool
}

// worse reports whether price a has lower priority than price b on this side
func (s *side[O, ID, Q, P]) worse(a, b P) bool {
	if s.bid {
		return a < b
	}
	return a > b
}

// crosses reports whether an incoming limit can trade with a resting price
// on this side
func (s *side[O, ID, Q, P]) crosses(resting, limit P) bool {
	if s.bid {
		return resting >= limit
	}
	return resting <= limit
}

func (s *side[O, ID, Q, P]) len() int {
	return len(s.orders)
}

func (s *side[O, ID, Q, P]) best() (O, bool) {
	if len(s.orders) == 0 {
		var zero O
		return zero, false
	}
	return s.orders[len(s.orders)-1], true
}

func (s *side[O, ID, Q, P]) popBest() {
	last := len(s.orders) - 1
	var zero O
	s.orders[last] = zero
	s.orders = s.orders[:last]
}

// insert places the order behind every resting order at the same or a
// better price
func (s *side[O, ID, Q, P]) insert(order O) {
	price := order.Price()
	idx := sort.Search(len(s.orders), func(i int) bool {
		return !s.worse(s.orders[i].Price(), price)
	})
	s.orders = slices.Insert(s.orders, idx, order)
}

func (s *side[O, ID, Q, P]) find(id ID) int {
	for i, o := range s.orders {
		if o.ID() == id {
			return i
		}
	}
	return -1
}

func (s *side[O, ID, Q, P]) remove(id ID) (O, bool) {
	i := s.find(id)
	if i < 0 {
		var zero O
		return zero, false
	}
	order := s.orders[i]
	s.orders = slices.Delete(s.orders, i, i+1)
	return order, true
}

// all yields orders best first
func (s *side[O, ID, Q, P]) all() iter.Seq[O] {
	return func(yield func(O) bool) {
		for i := len(s.orders) - 1; i >= 0; i-- {
			if !yield(s.orders[i]) {
				return
			}
		}
	}
}
