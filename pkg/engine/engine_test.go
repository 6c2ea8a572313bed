package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/erain9/tickbook/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleEngine = Engine[*core.SimpleOrder, uint32, uint32, uint32]

type recorded struct {
	submits  int
	fills    int
	traded   float64
	rested   int
	cancels  map[bool]int
	modifies map[bool]int
}

type fakeRecorder struct {
	r recorded
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{r: recorded{cancels: map[bool]int{}, modifies: map[bool]int{}}}
}

func (f *fakeRecorder) RecordSubmit(_ context.Context, _ core.Side, fills int, traded float64, rested bool) {
	f.r.submits++
	f.r.fills += fills
	f.r.traded += traded
	if rested {
		f.r.rested++
	}
}

func (f *fakeRecorder) RecordCancel(_ context.Context, ok bool) { f.r.cancels[ok]++ }
func (f *fakeRecorder) RecordModify(_ context.Context, ok bool) { f.r.modifies[ok]++ }

func newEngines(opts ...Option) map[string]*simpleEngine {
	return map[string]*simpleEngine{
		"vec":   New(core.Book[*core.SimpleOrder, uint32, uint32, uint32](core.NewSimpleBook()), opts...),
		"dense": New(core.Book[*core.SimpleOrder, uint32, uint32, uint32](core.NewDenseBook[*core.SimpleOrder, uint32, uint32, uint32](100)), opts...),
		"level": New(core.Book[*core.SimpleOrder, uint32, uint32, uint32](core.NewLevelBook[*core.SimpleOrder, uint32, uint32, uint32]()), opts...),
	}
}

func TestSubmitRejectsDuplicateID(t *testing.T) {
	for name, e := range newEngines() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := e.Sell(ctx, core.NewSimpleOrder(1, 5, 10))
			require.NoError(t, err)

			_, err = e.Buy(ctx, core.NewSimpleOrder(1, 5, 9))
			assert.ErrorIs(t, err, ErrOrderExists)
			assert.Equal(t, 1, e.Len())

			// once the maker is gone the id is free again
			fills, err := e.Buy(ctx, core.NewSimpleOrder(2, 5, 10))
			require.NoError(t, err)
			require.Len(t, fills, 1)
			assert.True(t, fills[0].Done)

			_, err = e.Sell(ctx, core.NewSimpleOrder(1, 1, 10))
			assert.NoError(t, err)
		})
	}
}

func TestSubmitTracksRestingTaker(t *testing.T) {
	for name, e := range newEngines() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := e.Sell(ctx, core.NewSimpleOrder(1, 2, 10))
			require.NoError(t, err)

			fills, err := e.Buy(ctx, core.NewSimpleOrder(2, 5, 10))
			require.NoError(t, err)
			assert.Equal(t, []core.SimpleFill{core.FullFill[uint32, uint32, uint32](1, 2, 10)}, fills)

			side, ok := e.Side(2)
			require.True(t, ok)
			assert.Equal(t, core.Buy, side)
			_, ok = e.Side(1)
			assert.False(t, ok)

			_, err = e.Cancel(ctx, 1)
			assert.ErrorIs(t, err, ErrNonexistentOrder)

			order, err := e.Cancel(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, uint32(3), order.Quantity())
			assert.Equal(t, 0, e.Len())
		})
	}
}

func TestSubmitZeroQuantity(t *testing.T) {
	for name, e := range newEngines() {
		t.Run(name, func(t *testing.T) {
			fills, err := e.Buy(context.Background(), core.NewSimpleOrder(1, 0, 10))
			require.NoError(t, err)
			assert.Empty(t, fills)
			_, ok := e.Side(1)
			assert.False(t, ok)
		})
	}
}

func TestSubmitRejectsPriceOutsideDenseDomain(t *testing.T) {
	e := newEngines()["dense"]
	_, err := e.Buy(context.Background(), core.NewSimpleOrder(1, 1, 101))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Equal(t, 0, e.Len())

	_, err = e.Buy(context.Background(), core.NewSimpleOrder(1, 1, 100))
	assert.NoError(t, err)
}

func TestModify(t *testing.T) {
	for name, e := range newEngines() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := e.Buy(ctx, core.NewSimpleOrder(1, 5, 10))
			require.NoError(t, err)

			assert.ErrorIs(t, e.Modify(ctx, 9, 1), ErrNonexistentOrder)
			assert.ErrorIs(t, e.Modify(ctx, 1, 0), ErrInvalidQuantity)
			assert.ErrorIs(t, e.Modify(ctx, 1, 5), ErrInvalidQuantity)
			require.NoError(t, e.Modify(ctx, 1, 4))

			bid, ok := e.Book().BestBid()
			require.True(t, ok)
			assert.Equal(t, uint32(4), bid.Quantity())
		})
	}
}

func TestRecorderAndLogger(t *testing.T) {
	var buf bytes.Buffer
	rec := newFakeRecorder()
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	e := New(core.Book[*core.SimpleOrder, uint32, uint32, uint32](core.NewSimpleBook()), WithRecorder(rec), WithLogger(logger))

	ctx := context.Background()
	_, err := e.Sell(ctx, core.NewSimpleOrder(1, 5, 10))
	require.NoError(t, err)
	_, err = e.Buy(ctx, core.NewSimpleOrder(2, 2, 10))
	require.NoError(t, err)
	_, err = e.Cancel(ctx, 7)
	require.Error(t, err)
	require.NoError(t, e.Modify(ctx, 1, 1))

	assert.Equal(t, 2, rec.r.submits)
	assert.Equal(t, 1, rec.r.fills)
	assert.Equal(t, 2.0, rec.r.traded)
	assert.Equal(t, 1, rec.r.rested)
	assert.Equal(t, 1, rec.r.cancels[false])
	assert.Equal(t, 1, rec.r.modifies[true])

	assert.Contains(t, buf.String(), `"message":"Order processed"`)
	assert.Contains(t, buf.String(), `"component":"engine"`)
	assert.Contains(t, buf.String(), `"order_id":2`)
}

func TestWithoutIDTracking(t *testing.T) {
	e := New(core.Book[*core.SimpleOrder, uint32, uint32, uint32](core.NewSimpleBook()), WithoutIDTracking())
	ctx := context.Background()

	_, err := e.Sell(ctx, core.NewSimpleOrder(1, 1, 10))
	require.NoError(t, err)
	_, err = e.Sell(ctx, core.NewSimpleOrder(1, 1, 11))
	require.NoError(t, err, "duplicates are trusted")
	assert.Equal(t, 2, e.Len())

	_, err = e.Cancel(ctx, 1)
	require.NoError(t, err)
	_, err = e.Cancel(ctx, 5)
	assert.ErrorIs(t, err, ErrNonexistentOrder)
	assert.ErrorIs(t, e.Modify(ctx, 5, 1), ErrInvalidQuantity)

	_, ok := e.Side(1)
	assert.False(t, ok)
}
