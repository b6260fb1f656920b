package order

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one recorded status transition
type HistoryEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	EventID    uuid.UUID
	From       Status
	To         Status
	OccurredAt time.Time
}

// NewHistoryEntry builds the history row for a status change event
func NewHistoryEntry(e *OrderStatusChangedEvent) *HistoryEntry {
	return &HistoryEntry{
		ID:         uuid.New(),
		OrderID:    e.OrderID,
		EventID:    e.EventID(),
		From:       e.From,
		To:         e.To,
		OccurredAt: e.OccurredAt(),
	}
}
