package dto

import (
	"net/http"

	"github.com/printmarket/backend/internal/domain/order"
)

// Transport error codes. Domain codes come from shared.DomainError.Code and
// are passed through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeContention      = "CONTENTION"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:              http.StatusBadRequest,
	ErrCodeBadRequest:              http.StatusBadRequest,
	order.CodeInvalidQuantity:      http.StatusBadRequest,
	order.CodeInvalidPrice:         http.StatusBadRequest,
	order.CodeInvalidPaymentMethod: http.StatusBadRequest,
	order.CodeInvalidPaymentStatus: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Concurrency and frozen orders -> 409 Conflict
	ErrCodeContention:     http.StatusConflict,
	order.CodeOrderLocked: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	order.CodeIllegalTransition: http.StatusUnprocessableEntity,
	order.CodeUnknownStatus:     http.StatusUnprocessableEntity,
	order.CodeEmptyOrder:        http.StatusUnprocessableEntity,
	order.CodeInvalidTotal:      http.StatusUnprocessableEntity,
	order.CodeInactiveProducer:  http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may repeat the request unchanged
func IsRetryable(code string) bool {
	return code == ErrCodeContention
}
