package replay

import (
	"fmt"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/erain9/tickbook/pkg/engine"
)

// Book kinds
const (
	KindVec   = "vec"
	KindDense = "dense"
	KindLevel = "level"
)

// Book is the book type replays run against
type Book = core.Book[*core.SimpleOrder, uint32, uint32, uint32]

// Engine is the engine type replays run through
type Engine = engine.Engine[*core.SimpleOrder, uint32, uint32, uint32]

// BookFactory returns a new empty book
type BookFactory func() Book

// NewBook returns a factory for the given kind. maxPrice bounds the dense
// book and is ignored by the others.
func NewBook(kind string, maxPrice uint32) (BookFactory, error) {
	switch kind {
	case KindVec:
		return func() Book { return core.NewSimpleBook() }, nil
	case KindDense:
		if maxPrice == 0 {
			return nil, fmt.Errorf("%w: dense book needs a positive max price", ErrInvalidBook)
		}
		return func() Book {
			return core.NewDenseBook[*core.SimpleOrder, uint32, uint32, uint32](maxPrice)
		}, nil
	case KindLevel:
		return func() Book {
			return core.NewLevelBook[*core.SimpleOrder, uint32, uint32, uint32]()
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBook, kind)
	}
}
