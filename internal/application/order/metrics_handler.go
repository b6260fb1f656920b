package order

import (
	"context"

	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MetricsRecorder receives order lifecycle measurements
type MetricsRecorder interface {
	RecordOrderCreated(ctx context.Context)
	RecordTransition(ctx context.Context, from, to string)
	RecordItemChange(ctx context.Context, change string)
	RecordPaidAmount(ctx context.Context, paymentMethod string, amount decimal.Decimal)
}

// MetricsHandler turns committed order events into metrics
type MetricsHandler struct {
	recorder MetricsRecorder
	logger   *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(recorder MetricsRecorder, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{recorder: recorder, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderItemsChanged,
		order.EventTypeOrderStatusChanged,
	}
}

// Handle records the measurement matching the event. Unknown events are ignored.
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		h.recorder.RecordOrderCreated(ctx)
	case *order.OrderItemsChangedEvent:
		h.recorder.RecordItemChange(ctx, e.Change)
	case *order.OrderStatusChangedEvent:
		h.recorder.RecordTransition(ctx, e.From.String(), e.To.String())
		if e.To == order.StatusPaid {
			h.recorder.RecordPaidAmount(ctx, string(e.PaymentMethod), e.Total)
		}
	default:
		h.logger.Debug("metrics handler ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}
