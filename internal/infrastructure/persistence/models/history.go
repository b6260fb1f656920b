package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
)

// OrderStatusHistoryModel stores one status transition. event_id is unique so
// a redelivered event cannot add a second row.
type OrderStatusHistoryModel struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_history_order_occurred,priority:1"`
	EventID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex"`
	FromStatus order.Status `gorm:"type:varchar(20);not null"`
	ToStatus   order.Status `gorm:"type:varchar(20);not null"`
	OccurredAt time.Time    `gorm:"not null;index:idx_history_order_occurred,priority:2"`
	CreatedAt  time.Time    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderStatusHistoryModel) TableName() string {
	return "order_status_history"
}

// ToDomain converts the persistence model to a domain HistoryEntry
func (m *OrderStatusHistoryModel) ToDomain() order.HistoryEntry {
	return order.HistoryEntry{
		ID:         m.ID,
		OrderID:    m.OrderID,
		EventID:    m.EventID,
		From:       m.FromStatus,
		To:         m.ToStatus,
		OccurredAt: m.OccurredAt,
	}
}

// OrderStatusHistoryModelFromDomain creates a persistence model from a domain HistoryEntry
func OrderStatusHistoryModelFromDomain(e *order.HistoryEntry) *OrderStatusHistoryModel {
	return &OrderStatusHistoryModel{
		ID:         e.ID,
		OrderID:    e.OrderID,
		EventID:    e.EventID,
		FromStatus: e.From,
		ToStatus:   e.To,
		OccurredAt: e.OccurredAt,
	}
}
