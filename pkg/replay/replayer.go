package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/erain9/tickbook/pkg/core"
	"github.com/erain9/tickbook/pkg/engine"
	"github.com/erain9/tickbook/pkg/feed"
	"github.com/erain9/tickbook/pkg/logging"
	"github.com/erain9/tickbook/pkg/otel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Histogram bounds, in nanoseconds
const (
	minLatency = 1
	maxLatency = int64(10 * time.Second)
	sigFigs    = 3
)

// Recorder receives engine outcomes and per action latencies.
// *otel.MatchingMetrics implements it.
type Recorder interface {
	engine.Recorder
	RecordLatency(ctx context.Context, action string, d time.Duration)
}

// Options configures a Replayer
type Options struct {
	// BookKind labels the report and spans
	BookKind string
	// Iterations is how many times the action list is replayed, each time
	// against a fresh book
	Iterations int
	// Rate paces actions per second; 0 replays as fast as possible
	Rate  float64
	Burst int
	// TrackIDs enables the engine's live id set and the exact conservation
	// check
	TrackIDs bool
	Recorder Recorder
	Logger   *zerolog.Logger
}

// Replayer runs an action list through an engine and measures it
type Replayer struct {
	factory BookFactory
	opts    Options
}

// New creates a replayer. Iterations below 1 are treated as 1.
func New(factory BookFactory, opts Options) *Replayer {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &Replayer{factory: factory, opts: opts}
}

// iteration accumulates the outcome of one pass over the actions
type iteration struct {
	submitted [2]uint64
	cancelled [2]uint64
	traded    uint64
	counts    Counts
	book      Book
}

// Run replays actions Iterations times and returns the combined report
func (r *Replayer) Run(ctx context.Context, actions []feed.Action) (*Report, error) {
	if len(actions) == 0 {
		return nil, ErrNoActions
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	if r.opts.Logger != nil {
		ctx = r.opts.Logger.WithContext(ctx)
	}
	logger := logging.FromContext(ctx).With().Str("book", r.opts.BookKind).Logger()

	ctx, span := otel.StartSpan(ctx, otel.SpanReplayRun,
		attribute.String(otel.AttributeRunID, runID),
		attribute.String(otel.AttributeBookKind, r.opts.BookKind),
		attribute.Int(otel.AttributeActions, len(actions)),
	)
	var err error
	defer func() { otel.EndSpan(span, err) }()

	var limiter *rate.Limiter
	if r.opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.opts.Rate), r.opts.Burst)
	}

	report := newReport(runID, r.opts.BookKind, len(actions))
	logger.Info().
		Int("actions", len(actions)).
		Int("iterations", r.opts.Iterations).
		Msg("Starting replay")

	start := time.Now()
	for i := 0; i < r.opts.Iterations; i++ {
		var it *iteration
		it, err = r.iterate(ctx, i, actions, limiter, report)
		if err != nil {
			return nil, err
		}
		report.add(it)
		logger.Debug().
			Int("iteration", i).
			Int("fills", it.counts.Fills).
			Int("resting", it.book.Len()).
			Msg("Iteration completed")
	}
	report.Duration = time.Since(start)

	span.SetAttributes(attribute.Int(otel.AttributeFills, report.Counts.Fills))
	logger.Info().
		Dur("duration", report.Duration).
		Float64("actions_per_sec", report.Throughput()).
		Int("fills", report.Counts.Fills).
		Msg("Replay completed")
	return report, nil
}

func (r *Replayer) iterate(ctx context.Context, n int, actions []feed.Action, limiter *rate.Limiter, report *Report) (it *iteration, err error) {
	ctx, span := otel.StartSpan(ctx, otel.SpanReplayIteration, attribute.Int(otel.AttributeIteration, n))
	defer func() { otel.EndSpan(span, err) }()

	opts := []engine.Option{}
	if r.opts.Recorder != nil {
		opts = append(opts, engine.WithRecorder(r.opts.Recorder))
	}
	if !r.opts.TrackIDs {
		opts = append(opts, engine.WithoutIDTracking())
	}
	it = &iteration{book: r.factory()}
	eng := engine.New(it.book, opts...)

	for i := range actions {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pacing: %w", err)
			}
		} else if i&1023 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		a := &actions[i]
		begin := time.Now()
		r.apply(ctx, eng, a, it)
		elapsed := time.Since(begin)

		report.recordLatency(a.Kind, elapsed)
		if r.opts.Recorder != nil {
			r.opts.Recorder.RecordLatency(ctx, a.Kind.String(), elapsed)
		}
	}

	if err := r.checkConservation(it); err != nil {
		return nil, fmt.Errorf("iteration %d: %w", n, err)
	}
	return it, nil
}

func (r *Replayer) apply(ctx context.Context, eng *Engine, a *feed.Action, it *iteration) {
	switch a.Kind {
	case feed.KindBuy, feed.KindSell:
		side := core.Sell
		if a.Kind == feed.KindBuy {
			side = core.Buy
			it.counts.Buys++
		} else {
			it.counts.Sells++
		}
		fills, err := eng.Submit(ctx, side, a.NewOrder())
		if err != nil {
			it.counts.Rejected++
			return
		}
		it.submitted[side] += uint64(a.Order.Quantity())
		it.counts.Fills += len(fills)
		it.traded += uint64(core.Traded(fills))

	case feed.KindCancel:
		it.counts.Cancels++
		side, tracked := eng.Side(a.CancelID)
		order, err := eng.Cancel(ctx, a.CancelID)
		if err != nil {
			it.counts.CancelMisses++
			return
		}
		if tracked {
			it.cancelled[side] += uint64(order.Quantity())
		}
	}
}

// checkConservation verifies every submitted unit is traded, cancelled or
// resting. Without id tracking the side of a cancelled order is unknown and
// only the traded bound is checked.
func (r *Replayer) checkConservation(it *iteration) error {
	for _, side := range []core.Side{core.Buy, core.Sell} {
		if it.traded > it.submitted[side] {
			return fmt.Errorf("%w: traded %d exceeds %s quantity %d", ErrConservation, it.traded, side, it.submitted[side])
		}
	}
	if !r.opts.TrackIDs {
		return nil
	}

	resting := [2]uint64{}
	for o := range it.book.Bids() {
		resting[core.Buy] += uint64(o.Quantity())
	}
	for o := range it.book.Asks() {
		resting[core.Sell] += uint64(o.Quantity())
	}
	for _, side := range []core.Side{core.Buy, core.Sell} {
		accounted := it.traded + it.cancelled[side] + resting[side]
		if accounted != it.submitted[side] {
			return fmt.Errorf("%w: %s submitted %d, traded %d, cancelled %d, resting %d",
				ErrConservation, side, it.submitted[side], it.traded, it.cancelled[side], resting[side])
		}
	}
	return nil
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatency, maxLatency, sigFigs)
}
