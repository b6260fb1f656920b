package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
)

// MutateFunc changes an order loaded by Repository.Mutate. Returning an
// error rolls the whole transaction back.
type MutateFunc func(o *Order) error

// Repository defines persistence for the Order aggregate
type Repository interface {
	// Create inserts a new order together with its pending domain events
	Create(ctx context.Context, o *Order) error

	// FindByID loads an order and its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForBuyer loads an order only if it belongs to buyerID
	FindByIDForBuyer(ctx context.Context, id, buyerID uuid.UUID) (*Order, error)

	// FindOrderIDByItem returns the ID of the order owning itemID
	FindOrderIDByItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error)

	// ListByBuyer lists a buyer's orders, newest first
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*Order, int64, error)

	// Mutate runs fn against the order inside one transaction that holds the
	// order row lock. If fn succeeds, the order row (version checked), its
	// item rows and its pending domain events are written before commit.
	// A concurrent writer surfaces as shared.ErrContention.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*Order, error)
}

// HistoryRepository stores the status-history read model
type HistoryRepository interface {
	// Append stores entry. An entry whose EventID was already stored is ignored.
	Append(ctx context.Context, entry *HistoryEntry) error

	// ListByOrder returns the history of an order, oldest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error)
}
