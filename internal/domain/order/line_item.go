package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineItem is one priced product and customization inside an order.
// Quantity, unit price and subtotal are unexported so that the subtotal can
// only change together with the values it is derived from.
type LineItem struct {
	shared.BaseEntity
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	CustomizationID uuid.UUID
	quantity        int
	unitPrice       decimal.Decimal
	subtotal        decimal.Decimal
}

// NewLineItem creates a validated line item with its subtotal computed
func NewLineItem(orderID, productID, customizationID uuid.UUID, quantity int, unitPrice decimal.Decimal, at time.Time) (*LineItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := validatePrice(unitPrice); err != nil {
		return nil, err
	}

	item := &LineItem{
		BaseEntity:      shared.NewBaseEntity(at),
		OrderID:         orderID,
		ProductID:       productID,
		CustomizationID: customizationID,
		quantity:        quantity,
		unitPrice:       unitPrice.Round(2),
	}
	item.refreshSubtotal()
	return item, nil
}

// RestoreLineItem rebuilds a persisted line item. The subtotal is derived
// again from quantity and price instead of trusting the stored column.
func RestoreLineItem(base shared.BaseEntity, orderID, productID, customizationID uuid.UUID, quantity int, unitPrice decimal.Decimal) LineItem {
	item := LineItem{
		BaseEntity:      base,
		OrderID:         orderID,
		ProductID:       productID,
		CustomizationID: customizationID,
		quantity:        quantity,
		unitPrice:       unitPrice,
	}
	item.refreshSubtotal()
	return item
}

// Quantity returns the ordered quantity
func (li *LineItem) Quantity() int {
	return li.quantity
}

// UnitPrice returns the price frozen when the item was added
func (li *LineItem) UnitPrice() decimal.Decimal {
	return li.unitPrice
}

// Subtotal returns quantity * unit price
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.subtotal
}

// apply updates quantity and/or price. Nil leaves a field unchanged.
func (li *LineItem) apply(quantity *int, unitPrice *decimal.Decimal, at time.Time) error {
	if quantity != nil {
		if err := validateQuantity(*quantity); err != nil {
			return err
		}
	}
	if unitPrice != nil {
		if err := validatePrice(*unitPrice); err != nil {
			return err
		}
	}
	if quantity != nil {
		li.quantity = *quantity
	}
	if unitPrice != nil {
		li.unitPrice = unitPrice.Round(2)
	}
	li.refreshSubtotal()
	li.Touch(at)
	return nil
}

func (li *LineItem) refreshSubtotal() {
	li.subtotal = li.unitPrice.Mul(decimal.NewFromInt(int64(li.quantity)))
}

func validateQuantity(q int) error {
	if q < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
