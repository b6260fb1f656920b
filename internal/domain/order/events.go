package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated       = "OrderCreated"
	EventTypeOrderItemsChanged  = "OrderItemsChanged"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderCreatedEvent is raised when a new order is opened
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	ProducerID uuid.UUID `json:"producer_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.CreatedAt),
		OrderID:         o.ID,
		BuyerID:         o.BuyerID,
		ProducerID:      o.ProducerID,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderItemsChangedEvent is raised after an item is added, changed or removed.
// Total is the recomputed ledger total at that point.
type OrderItemsChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Change    string          `json:"change"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Item change kinds carried by OrderItemsChangedEvent
const (
	ItemChangeAdded   = "added"
	ItemChangeUpdated = "updated"
	ItemChangeRemoved = "removed"
)

// NewOrderItemsChangedEvent creates a new OrderItemsChangedEvent
func NewOrderItemsChangedEvent(o *Order, itemID uuid.UUID, change string, at time.Time) *OrderItemsChangedEvent {
	return &OrderItemsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderItemsChanged, AggregateTypeOrder, o.ID, at),
		OrderID:         o.ID,
		ItemID:          itemID,
		Change:          change,
		ItemCount:       len(o.items),
		Total:           o.total,
	}
}

// EventType returns the event type name
func (e *OrderItemsChangedEvent) EventType() string {
	return EventTypeOrderItemsChanged
}

// OrderStatusChangedEvent is raised by every lifecycle transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	ProducerID    uuid.UUID       `json:"producer_id"`
	From          Status          `json:"from"`
	To            Status          `json:"to"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	PrinterID     *uuid.UUID      `json:"printer_id,omitempty"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status, at time.Time) *OrderStatusChangedEvent {
	e := &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, at),
		OrderID:         o.ID,
		BuyerID:         o.BuyerID,
		ProducerID:      o.ProducerID,
		From:            from,
		To:              o.status,
		Total:           o.total,
		PrinterID:       o.printerID,
	}
	if o.payment != nil {
		e.PaymentMethod = o.payment.Method
	}
	return e
}

// EventType returns the event type name
func (e *OrderStatusChangedEvent) EventType() string {
	return EventTypeOrderStatusChanged
}
