package order

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
)

// Error codes produced by the order domain
const (
	CodeOrderLocked          = "ORDER_LOCKED"
	CodeIllegalTransition    = "ILLEGAL_TRANSITION"
	CodeEmptyOrder           = "EMPTY_ORDER"
	CodeInvalidTotal         = "INVALID_TOTAL"
	CodeInactiveProducer     = "INACTIVE_PRODUCER"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInvalidPrice         = "INVALID_PRICE"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeInvalidPaymentStatus = "INVALID_PAYMENT_STATUS"
	CodeUnknownStatus        = "UNKNOWN_STATUS"
)

// Sentinels for errors.Is. Matching is by code, so the dynamic messages built
// below still match their sentinel.
var (
	ErrOrderLocked       = shared.NewDomainError(CodeOrderLocked, "Order items can no longer be changed")
	ErrIllegalTransition = shared.NewDomainError(CodeIllegalTransition, "Status change not allowed")
	ErrEmptyOrder        = shared.NewDomainError(CodeEmptyOrder, "Order has no items")
	ErrInvalidTotal      = shared.NewDomainError(CodeInvalidTotal, "Order total must be greater than zero")
	ErrInactiveProducer  = shared.NewDomainError(CodeInactiveProducer, "Producer cannot receive orders")
	ErrInvalidQuantity   = shared.NewDomainError(CodeInvalidQuantity, "Quantity must be at least 1")
	ErrInvalidPrice      = shared.NewDomainError(CodeInvalidPrice, "Unit price cannot be negative")
)

func errOrderLocked(status Status) error {
	return shared.NewDomainError(CodeOrderLocked,
		fmt.Sprintf("Cannot change items of an order in %s status", status))
}

func errIllegalTransition(from, to Status) error {
	return shared.NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("Cannot move order from %s to %s", from, to))
}

// ErrUnknownStatus reports a status string outside the lifecycle
func ErrUnknownStatus(s string) error {
	return shared.NewDomainError(CodeUnknownStatus, fmt.Sprintf("Unknown order status %q", s))
}

// ErrOrderNotFound reports a missing order or one owned by another buyer
func ErrOrderNotFound(id uuid.UUID) error {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Order %s not found", id))
}

// ErrItemNotFound reports a missing line item
func ErrItemNotFound(id uuid.UUID) error {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Order item %s not found", id))
}
