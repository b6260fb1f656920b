package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
// TotalAmount is written on every save but never read back: Restore derives
// the total from the item rows.
type OrderModel struct {
	AggregateModel
	BuyerID             uuid.UUID            `gorm:"type:uuid;not null;index:idx_orders_buyer_created,priority:1"`
	ProducerID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status              order.Status         `gorm:"type:varchar(20);not null;default:'created';index"`
	TotalAmount         decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	PaymentMethod       *order.PaymentMethod `gorm:"type:varchar(20)"`
	PaymentStatus       *order.PaymentStatus `gorm:"type:varchar(20)"`
	PrinterID           *uuid.UUID           `gorm:"type:uuid"`
	PaidAt              *time.Time
	ProductionStartedAt *time.Time
	PrintedAt           *time.Time
	ShippedAt           *time.Time
	CompletedAt         *time.Time
	CanceledAt          *time.Time
	Items               []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	items := make([]order.LineItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}

	var payment *order.Payment
	if m.PaymentMethod != nil {
		payment = &order.Payment{Method: *m.PaymentMethod}
		if m.PaymentStatus != nil {
			payment.Status = *m.PaymentStatus
		}
	}

	return order.Restore(order.State{
		ID:         m.ID,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		BuyerID:    m.BuyerID,
		ProducerID: m.ProducerID,
		Status:     m.Status,
		Items:      items,
		Payment:    payment,
		PrinterID:  m.PrinterID,
		Timestamps: order.Timestamps{
			PaidAt:              m.PaidAt,
			ProductionStartedAt: m.ProductionStartedAt,
			PrintedAt:           m.PrintedAt,
			ShippedAt:           m.ShippedAt,
			CompletedAt:         m.CompletedAt,
			CanceledAt:          m.CanceledAt,
		},
	})
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	s := o.Snapshot()
	m.FromDomainAggregateRoot(shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
		Version:    s.Version,
	})
	m.BuyerID = s.BuyerID
	m.ProducerID = s.ProducerID
	m.Status = s.Status
	m.TotalAmount = o.Total()
	m.PaymentMethod = nil
	m.PaymentStatus = nil
	if s.Payment != nil {
		method, status := s.Payment.Method, s.Payment.Status
		m.PaymentMethod = &method
		m.PaymentStatus = &status
	}
	m.PrinterID = s.PrinterID
	m.PaidAt = s.Timestamps.PaidAt
	m.ProductionStartedAt = s.Timestamps.ProductionStartedAt
	m.PrintedAt = s.Timestamps.PrintedAt
	m.ShippedAt = s.Timestamps.ShippedAt
	m.CompletedAt = s.Timestamps.CompletedAt
	m.CanceledAt = s.Timestamps.CanceledAt

	m.Items = make([]OrderItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i].FromDomain(&s.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for a line item
type OrderItemModel struct {
	BaseModel
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	CustomizationID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain LineItem. The stored
// subtotal is ignored.
func (m *OrderItemModel) ToDomain() order.LineItem {
	return order.RestoreLineItem(m.BaseModel.ToDomain(), m.OrderID, m.ProductID, m.CustomizationID, m.Quantity, m.UnitPrice)
}

// FromDomain populates the persistence model from a domain LineItem
func (m *OrderItemModel) FromDomain(li *order.LineItem) {
	m.FromDomainBaseEntity(li.BaseEntity)
	m.OrderID = li.OrderID
	m.ProductID = li.ProductID
	m.CustomizationID = li.CustomizationID
	m.Quantity = li.Quantity()
	m.UnitPrice = li.UnitPrice()
	m.Subtotal = li.Subtotal()
}
