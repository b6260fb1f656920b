package event

import (
	"github.com/printmarket/backend/internal/domain/order"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The outbox processor can only redeliver types registered here.
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	serializer.Register(order.EventTypeOrderItemsChanged, &order.OrderItemsChangedEvent{})
	serializer.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
}
