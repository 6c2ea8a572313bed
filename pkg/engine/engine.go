package engine

import (
	"cmp"
	"context"
	"fmt"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/rs/zerolog"
)

// Engine drives a core.Book on behalf of a single writer. It rejects what
// the book leaves undefined (duplicate ids, prices outside the book's
// domain) and reports unknown ids as errors instead of booleans.
type Engine[O core.Order[ID, Q, P], ID comparable, Q core.Quantity, P cmp.Ordered] struct {
	book     core.Book[O, ID, Q, P]
	live     map[ID]core.Side
	tracking bool
	logger   zerolog.Logger
	recorder Recorder
}

// Option configures an Engine
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	recorder Recorder
	tracking bool
}

// WithLogger sets the logger used for per order debug events
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder sets the recorder receiving operation outcomes
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithoutIDTracking disables the live id set. Submit then trusts ids to be
// unique, and Cancel and Modify defer entirely to the book.
func WithoutIDTracking() Option {
	return func(o *options) {
		o.tracking = false
	}
}

// New creates an engine over book
func New[O core.Order[ID, Q, P], ID comparable, Q core.Quantity, P cmp.Ordered](book core.Book[O, ID, Q, P], opts ...Option) *Engine[O, ID, Q, P] {
	o := options{
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
		tracking: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine[O, ID, Q, P]{
		book:     book,
		tracking: o.tracking,
		logger:   o.logger.With().Str("component", "engine").Logger(),
		recorder: o.recorder,
	}
	if e.tracking {
		e.live = make(map[ID]core.Side)
	}
	return e
}

// Book returns the underlying book
func (e *Engine[O, ID, Q, P]) Book() core.Book[O, ID, Q, P] {
	return e.book
}

// Len returns the number of resting orders
func (e *Engine[O, ID, Q, P]) Len() int {
	return e.book.Len()
}

// Buy submits a buy order
func (e *Engine[O, ID, Q, P]) Buy(ctx context.Context, order O) ([]core.Fill[ID, Q, P], error) {
	return e.Submit(ctx, core.Buy, order)
}

// Sell submits a sell order
func (e *Engine[O, ID, Q, P]) Sell(ctx context.Context, order O) ([]core.Fill[ID, Q, P], error) {
	return e.Submit(ctx, core.Sell, order)
}

// Submit matches order against the opposite side and rests any remainder.
// A zero quantity order is accepted and does nothing.
func (e *Engine[O, ID, Q, P]) Submit(ctx context.Context, side core.Side, order O) ([]core.Fill[ID, Q, P], error) {
	id := order.ID()
	if e.tracking {
		if _, exists := e.live[id]; exists {
			return nil, fmt.Errorf("%w: %v", ErrOrderExists, id)
		}
	}

	var zero Q
	quantity := order.Quantity()
	if quantity < zero {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantity, quantity)
	}
	if quantity == zero {
		return nil, nil
	}
	if bounded, ok := e.book.(interface{ Accepts(P) bool }); ok && !bounded.Accepts(order.Price()) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, order.Price())
	}

	fills := core.Submit(e.book, side, order)
	traded := core.Traded(fills)
	rested := traded < quantity

	if e.tracking {
		for _, f := range fills {
			if f.Done {
				delete(e.live, f.MakerID)
			}
		}
		if rested {
			e.live[id] = side
		}
	}

	e.recorder.RecordSubmit(ctx, side, len(fills), float64(traded), rested)
	if ev := e.logger.Debug(); ev.Enabled() {
		ev.Interface("order_id", id).
			Str("side", side.String()).
			Int("fills", len(fills)).
			Bool("rested", rested).
			Msg("Order processed")
	}

	return fills, nil
}

// Cancel removes a resting order
func (e *Engine[O, ID, Q, P]) Cancel(ctx context.Context, id ID) (O, error) {
	var zero O
	if e.tracking {
		if _, ok := e.live[id]; !ok {
			e.recorder.RecordCancel(ctx, false)
			return zero, fmt.Errorf("%w: %v", ErrNonexistentOrder, id)
		}
	}

	order, ok := e.book.Remove(id)
	e.recorder.RecordCancel(ctx, ok)
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrNonexistentOrder, id)
	}
	if e.tracking {
		delete(e.live, id)
	}

	if ev := e.logger.Debug(); ev.Enabled() {
		ev.Interface("order_id", id).Msg("Order canceled")
	}
	return order, nil
}

// Modify reduces the quantity of a resting order, keeping its priority
func (e *Engine[O, ID, Q, P]) Modify(ctx context.Context, id ID, quantity Q) error {
	if e.tracking {
		if _, ok := e.live[id]; !ok {
			e.recorder.RecordModify(ctx, false)
			return fmt.Errorf("%w: %v", ErrNonexistentOrder, id)
		}
	}

	ok := e.book.Modify(id, quantity)
	e.recorder.RecordModify(ctx, ok)
	if !ok {
		return fmt.Errorf("%w: %v for order %v", ErrInvalidQuantity, quantity, id)
	}

	if ev := e.logger.Debug(); ev.Enabled() {
		ev.Interface("order_id", id).Msg("Order modified")
	}
	return nil
}

// Side returns the side of a resting order. It always reports false when id
// tracking is disabled.
func (e *Engine[O, ID, Q, P]) Side(id ID) (core.Side, bool) {
	side, ok := e.live[id]
	return side, ok
}
