package order

import (
	"context"
	"fmt"

	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StatusHistoryHandler handles OrderStatusChangedEvent and records each
// transition in the status history read model. Redelivered events are
// absorbed by the repository, which ignores an already stored event ID.
type StatusHistoryHandler struct {
	history order.HistoryRepository
	logger  *zap.Logger
}

// NewStatusHistoryHandler creates a new handler for order status events
func NewStatusHistoryHandler(history order.HistoryRepository, logger *zap.Logger) *StatusHistoryHandler {
	return &StatusHistoryHandler{
		history: history,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StatusHistoryHandler) EventTypes() []string {
	return []string{order.EventTypeOrderStatusChanged}
}

// Handle appends the transition carried by the event
func (h *StatusHistoryHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*order.OrderStatusChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", order.EventTypeOrderStatusChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderStatusChanged, event.EventType())
	}

	if err := h.history.Append(ctx, order.NewHistoryEntry(changed)); err != nil {
		h.logger.Error("failed to record status change",
			zap.String("order_id", changed.OrderID.String()),
			zap.String("event_id", changed.EventID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("record status change of order %s: %w", changed.OrderID, err)
	}

	h.logger.Debug("status change recorded",
		zap.String("order_id", changed.OrderID.String()),
		zap.String("from", changed.From.String()),
		zap.String("to", changed.To.String()),
	)
	return nil
}
