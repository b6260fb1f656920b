package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL error codes raised when a row lock cannot be taken in time
const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
)

// DefaultRowLockTimeout bounds how long Mutate waits for the order row lock
const DefaultRowLockTimeout = 2 * time.Second

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db             *gorm.DB
	outboxSaver    shared.OutboxEventSaver // optional, for transactional outbox pattern
	rowLockTimeout time.Duration
}

// OrderRepositoryOption configures a GormOrderRepository
type OrderRepositoryOption func(*GormOrderRepository)

// WithRowLockTimeout sets the lock_timeout applied inside Mutate on PostgreSQL
func WithRowLockTimeout(d time.Duration) OrderRepositoryOption {
	return func(r *GormOrderRepository) {
		r.rowLockTimeout = d
	}
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB, opts ...OrderRepositoryOption) *GormOrderRepository {
	r := &GormOrderRepository{db: db, rowLockTimeout: DefaultRowLockTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormOrderRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// itemsInOrder preloads line items in the order they were added
func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// Create inserts a new order and its pending events
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := models.OrderModelFromDomain(o)
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range m.Items {
			if err := tx.Create(&m.Items[i]).Error; err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return r.saveEvents(ctx, tx, o.GetDomainEvents())
	})
	if err != nil {
		return err
	}
	o.ClearDomainEvents()
	return nil
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound(id)
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDForBuyer finds an order by ID only if buyerID placed it. Orders of
// other buyers are reported as not found.
func (r *GormOrderRepository) FindByIDForBuyer(ctx context.Context, id, buyerID uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		Where("id = ? AND buyer_id = ?", id, buyerID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound(id)
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindOrderIDByItem returns the order that owns itemID
func (r *GormOrderRepository) FindOrderIDByItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Where("id = ?", itemID).
		Limit(1).
		Pluck("order_id", &ids).Error; err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, order.ErrItemNotFound(itemID)
	}
	return ids[0], nil
}

// ListByBuyer lists a buyer's orders with pagination
func (r *GormOrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]*order.Order, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.OrderModel
	if err := query.
		Preload("Items", itemsInOrder).
		Order(fmt.Sprintf("%s %s, id %s", sortField, sortOrder, sortOrder)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*order.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, total, nil
}

// Mutate loads the order under a row lock, applies fn and writes the result
// in the same transaction. The order row update is version checked, so a
// writer that slipped past the lock surfaces as shared.ErrContention.
func (r *GormOrderRepository) Mutate(ctx context.Context, id uuid.UUID, fn order.MutateFunc) (*order.Order, error) {
	var result *order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.applyRowLockTimeout(tx); err != nil {
			return err
		}

		var m models.OrderModel
		if err := r.lockingQuery(tx).
			Preload("Items", itemsInOrder).
			First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return order.ErrOrderNotFound(id)
			}
			return err
		}

		o := m.ToDomain()
		if err := fn(o); err != nil {
			return err
		}

		events := o.GetDomainEvents()
		if len(events) == 0 {
			result = o
			return nil
		}

		loadedVersion := o.Version
		o.IncrementVersion()
		if err := r.updateOrderRow(tx, o, loadedVersion); err != nil {
			return err
		}
		if err := r.syncItems(tx, o); err != nil {
			return err
		}
		if err := r.saveEvents(ctx, tx, events); err != nil {
			return err
		}

		result = o
		return nil
	})
	if err != nil {
		return nil, translateLockError(err)
	}
	result.ClearDomainEvents()
	return result, nil
}

func (r *GormOrderRepository) isPostgres(tx *gorm.DB) bool {
	return tx.Dialector.Name() == "postgres"
}

// applyRowLockTimeout makes a blocked SELECT ... FOR UPDATE fail instead of
// queueing indefinitely behind another transaction
func (r *GormOrderRepository) applyRowLockTimeout(tx *gorm.DB) error {
	if !r.isPostgres(tx) || r.rowLockTimeout <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.rowLockTimeout.Milliseconds())
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	return nil
}

// lockingQuery adds FOR UPDATE where the dialect supports row locks. SQLite
// serializes writers on its own.
func (r *GormOrderRepository) lockingQuery(tx *gorm.DB) *gorm.DB {
	if !r.isPostgres(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *GormOrderRepository) updateOrderRow(tx *gorm.DB, o *order.Order, loadedVersion int) error {
	m := models.OrderModelFromDomain(o)
	res := tx.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, loadedVersion).
		Updates(map[string]any{
			"status":                m.Status,
			"total_amount":          m.TotalAmount,
			"payment_method":        m.PaymentMethod,
			"payment_status":        m.PaymentStatus,
			"printer_id":            m.PrinterID,
			"paid_at":               m.PaidAt,
			"production_started_at": m.ProductionStartedAt,
			"printed_at":            m.PrintedAt,
			"shipped_at":            m.ShippedAt,
			"completed_at":          m.CompletedAt,
			"canceled_at":           m.CanceledAt,
			"version":               m.Version,
			"updated_at":            m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrContention
	}
	return nil
}

// syncItems makes the order_items rows match the aggregate's live items
func (r *GormOrderRepository) syncItems(tx *gorm.DB, o *order.Order) error {
	items := o.Items()
	currentItemIDs := make([]uuid.UUID, len(items))
	for i := range items {
		currentItemIDs[i] = items[i].ID
	}

	del := tx.Where("order_id = ?", o.ID)
	if len(currentItemIDs) > 0 {
		del = del.Where("id NOT IN ?", currentItemIDs)
	}
	if err := del.Delete(&models.OrderItemModel{}).Error; err != nil {
		return fmt.Errorf("delete removed items: %w", err)
	}

	for i := range items {
		itemModel := &models.OrderItemModel{}
		itemModel.FromDomain(&items[i])
		if err := tx.Save(itemModel).Error; err != nil {
			return fmt.Errorf("save order item: %w", err)
		}
	}
	return nil
}

func (r *GormOrderRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// IsLockContention reports whether err is a PostgreSQL lock timeout or deadlock
func IsLockContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgLockNotAvailable || pgErr.Code == pgDeadlockDetected
}

// translateLockError maps lock contention to shared.ErrContention. Other errors
// pass through unchanged.
func translateLockError(err error) error {
	if IsLockContention(err) {
		return shared.ErrContention
	}
	return err
}

var _ order.Repository = (*GormOrderRepository)(nil)
