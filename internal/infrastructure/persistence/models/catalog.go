package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalApproved is the producers.approval_status value that allows selling
const ApprovalApproved = "approved"

// ProducerModel is the read side of an artist account. This service never
// writes it.
type ProducerModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName    string    `gorm:"type:varchar(200);not null"`
	Active         bool      `gorm:"not null"`
	ApprovalStatus string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProducerModel) TableName() string {
	return "producers"
}

// ProductModel is a catalog product
type ProductModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProducerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(200);not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// CustomizationModel is a printable variant (size, frame, paper) of a product
type CustomizationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomizationModel) TableName() string {
	return "customizations"
}

// PrinterModel is a print partner that can be attached to an order
type PrinterModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PrinterModel) TableName() string {
	return "printers"
}
