package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCatalogReader answers the order context's questions about producers,
// products, customizations and printers. It only reads.
type GormCatalogReader struct {
	db *gorm.DB
}

// NewGormCatalogReader creates a new GormCatalogReader
func NewGormCatalogReader(db *gorm.DB) *GormCatalogReader {
	return &GormCatalogReader{db: db}
}

// CanReceiveOrders reports whether the producer is active and approved
func (r *GormCatalogReader) CanReceiveOrders(ctx context.Context, producerID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.ProducerModel{},
		"id = ? AND active = ? AND approval_status = ?", producerID, true, models.ApprovalApproved)
}

// ProductExists reports whether the product is in the catalog
func (r *GormCatalogReader) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.ProductModel{}, "id = ?", productID)
}

// CustomizationOfProduct reports whether the customization exists for productID
func (r *GormCatalogReader) CustomizationOfProduct(ctx context.Context, customizationID, productID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CustomizationModel{}, "id = ? AND product_id = ?", customizationID, productID)
}

// PrinterExists reports whether the printer is registered
func (r *GormCatalogReader) PrinterExists(ctx context.Context, printerID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.PrinterModel{}, "id = ?", printerID)
}

func (r *GormCatalogReader) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var (
	_ order.ProducerEligibility = (*GormCatalogReader)(nil)
	_ order.Catalog             = (*GormCatalogReader)(nil)
	_ order.PrinterDirectory    = (*GormCatalogReader)(nil)
)
