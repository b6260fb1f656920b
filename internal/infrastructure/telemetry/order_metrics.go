package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewOrderMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// AttrItemChange labels item mutations by kind (added, updated, removed)
var AttrItemChange = attribute.Key("item_change")

// OrderMetrics records order lifecycle metrics. Values are fed from committed
// domain events, so a rolled back mutation is never counted.
type OrderMetrics struct {
	logger *zap.Logger

	createdTotal     *Counter
	transitionsTotal *Counter
	itemChangesTotal *Counter
	paidAmount       *Histogram
}

// OrderMetricsConfig holds configuration for order metrics.
type OrderMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewOrderMetrics creates the order instruments on the given meter.
func NewOrderMetrics(cfg OrderMetricsConfig) (*OrderMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	om := &OrderMetrics{logger: logger}

	var err error
	om.createdTotal, err = NewCounter(
		cfg.Meter,
		"printmarket_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	om.transitionsTotal, err = NewCounter(
		cfg.Meter,
		"printmarket_order_transitions_total",
		"Total number of order status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	om.itemChangesTotal, err = NewCounter(
		cfg.Meter,
		"printmarket_order_item_changes_total",
		"Total number of line item changes",
		"{changes}",
	)
	if err != nil {
		return nil, err
	}

	om.paidAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "printmarket_order_paid_amount",
		Description: "Total of orders at payment confirmation",
		Unit:        "{currency}",
		Boundaries:  OrderAmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	return om, nil
}

// RecordOrderCreated counts a newly created order.
func (om *OrderMetrics) RecordOrderCreated(ctx context.Context) {
	om.createdTotal.Inc(ctx)
}

// RecordTransition counts a status change labelled by both ends.
func (om *OrderMetrics) RecordTransition(ctx context.Context, from, to string) {
	om.transitionsTotal.Inc(ctx,
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordItemChange counts a line item mutation.
func (om *OrderMetrics) RecordItemChange(ctx context.Context, change string) {
	om.itemChangesTotal.Inc(ctx, AttrItemChange.String(change))
}

// RecordPaidAmount records the order total at the moment payment was confirmed.
func (om *OrderMetrics) RecordPaidAmount(ctx context.Context, paymentMethod string, amount decimal.Decimal) {
	om.paidAmount.Record(ctx, amount.InexactFloat64(), AttrPaymentMethod.String(paymentMethod))
}
