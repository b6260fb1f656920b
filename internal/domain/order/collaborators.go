package order

import (
	"context"

	"github.com/google/uuid"
)

// ProducerEligibility answers whether a producer (artist) may receive orders.
// Unknown producers are reported as not eligible.
type ProducerEligibility interface {
	CanReceiveOrders(ctx context.Context, producerID uuid.UUID) (bool, error)
}

// Catalog validates product and customization references. Prices are never
// read from it; the caller supplies the unit price when adding an item.
type Catalog interface {
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	// CustomizationOfProduct reports whether customizationID exists and
	// belongs to productID
	CustomizationOfProduct(ctx context.Context, customizationID, productID uuid.UUID) (bool, error)
}

// PrinterDirectory validates printer references attached on printing
type PrinterDirectory interface {
	PrinterExists(ctx context.Context, printerID uuid.UUID) (bool, error)
}
