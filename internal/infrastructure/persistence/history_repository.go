package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormHistoryRepository implements order.HistoryRepository using GORM
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Append stores entry. A second entry for the same event is dropped by the
// unique index on event_id.
func (r *GormHistoryRepository) Append(ctx context.Context, entry *order.HistoryEntry) error {
	m := models.OrderStatusHistoryModelFromDomain(entry)
	m.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(m).Error
}

// ListByOrder returns an order's status history, oldest first
func (r *GormHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.HistoryEntry, error) {
	var rows []models.OrderStatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]order.HistoryEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

var _ order.HistoryRepository = (*GormHistoryRepository)(nil)
