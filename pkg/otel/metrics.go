package otel

import (
	"context"
	"sync"
	"time"

	"github.com/erain9/tickbook/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Result attribute values
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

var (
	matchingMetrics     *MatchingMetrics
	matchingMetricsOnce sync.Once
)

// MatchingMetrics holds the instruments recording order book activity
type MatchingMetrics struct {
	ordersTotal    metric.Int64Counter
	fillsTotal     metric.Int64Counter
	tradedQuantity metric.Float64Counter
	restedTotal    metric.Int64Counter
	cancelsTotal   metric.Int64Counter
	modifiesTotal  metric.Int64Counter
	actionDuration metric.Float64Histogram
}

// NewMatchingMetrics creates the matching instruments on meter
func NewMatchingMetrics(meter metric.Meter) (*MatchingMetrics, error) {
	ordersTotal, err := meter.Int64Counter(
		"orderbook.orders.total",
		metric.WithDescription("Total number of orders submitted"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	fillsTotal, err := meter.Int64Counter(
		"orderbook.fills.total",
		metric.WithDescription("Total number of fills produced"),
		metric.WithUnit("{fill}"),
	)
	if err != nil {
		return nil, err
	}

	tradedQuantity, err := meter.Float64Counter(
		"orderbook.traded.quantity",
		metric.WithDescription("Total quantity traded"),
	)
	if err != nil {
		return nil, err
	}

	restedTotal, err := meter.Int64Counter(
		"orderbook.rested.total",
		metric.WithDescription("Total number of orders that rested a remainder"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	cancelsTotal, err := meter.Int64Counter(
		"orderbook.cancels.total",
		metric.WithDescription("Total number of cancel requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	modifiesTotal, err := meter.Int64Counter(
		"orderbook.modifies.total",
		metric.WithDescription("Total number of quantity reduction requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	actionDuration, err := meter.Float64Histogram(
		"orderbook.action.duration",
		metric.WithDescription("Latency (seconds) of a single book action"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MatchingMetrics{
		ordersTotal:    ordersTotal,
		fillsTotal:     fillsTotal,
		tradedQuantity: tradedQuantity,
		restedTotal:    restedTotal,
		cancelsTotal:   cancelsTotal,
		modifiesTotal:  modifiesTotal,
		actionDuration: actionDuration,
	}, nil
}

// GetMatchingMetrics returns the MatchingMetrics singleton bound to the
// global meter provider
func GetMatchingMetrics() (*MatchingMetrics, error) {
	var err error
	matchingMetricsOnce.Do(func() {
		matchingMetrics, err = NewMatchingMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	})
	if err != nil {
		return nil, err
	}
	return matchingMetrics, nil
}

// RecordSubmit records one submitted order and what came of it
func (m *MatchingMetrics) RecordSubmit(ctx context.Context, side core.Side, fills int, traded float64, rested bool) {
	sideAttr := metric.WithAttributes(attribute.String(AttributeOrderSide, side.String()))
	m.ordersTotal.Add(ctx, 1, sideAttr)
	if fills > 0 {
		m.fillsTotal.Add(ctx, int64(fills), sideAttr)
		m.tradedQuantity.Add(ctx, traded, sideAttr)
	}
	if rested {
		m.restedTotal.Add(ctx, 1, sideAttr)
	}
}

// RecordCancel records a cancel request
func (m *MatchingMetrics) RecordCancel(ctx context.Context, ok bool) {
	m.cancelsTotal.Add(ctx, 1, metric.WithAttributes(resultAttr(ok)))
}

// RecordModify records a quantity reduction request
func (m *MatchingMetrics) RecordModify(ctx context.Context, ok bool) {
	m.modifiesTotal.Add(ctx, 1, metric.WithAttributes(resultAttr(ok)))
}

// RecordLatency records the duration of one book action
func (m *MatchingMetrics) RecordLatency(ctx context.Context, action string, d time.Duration) {
	m.actionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(AttributeAction, action)))
}

func resultAttr(ok bool) attribute.KeyValue {
	if ok {
		return attribute.String(AttributeResult, ResultAccepted)
	}
	return attribute.String(AttributeResult, ResultRejected)
}
