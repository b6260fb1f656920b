package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// CreateOrderRequest opens an empty order addressed to a producer
type CreateOrderRequest struct {
	ProducerID uuid.UUID `json:"producer_id" binding:"required"`
}

// AddItemRequest adds a product line to an order. UnitPrice is the price
// agreed at add time and is never re-read from the catalog.
type AddItemRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	CustomizationID uuid.UUID       `json:"customization_id" binding:"required"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// UpdateItemRequest changes quantity and/or unit price of a line item
type UpdateItemRequest struct {
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ConfirmPaymentRequest records a successful payment. Status defaults to
// confirmed when empty.
type ConfirmPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,payment_method"`
	PaymentStatus string `json:"payment_status" binding:"omitempty,oneof=confirmed pending failed"`
}

// AdvanceRequest moves a paid order along the production flow
type AdvanceRequest struct {
	Status    string     `json:"status" binding:"required"`
	PrinterID *uuid.UUID `json:"printer_id"`
}

// ListOrdersRequest pages through a buyer's orders
type ListOrdersRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Responses ====================

// LineItemResponse is the API view of an order line
type LineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	CustomizationID uuid.UUID       `json:"customization_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderResponse is the API view of an order with its items
type OrderResponse struct {
	ID                  uuid.UUID          `json:"id"`
	BuyerID             uuid.UUID          `json:"buyer_id"`
	ProducerID          uuid.UUID          `json:"producer_id"`
	Status              string             `json:"status"`
	Total               decimal.Decimal    `json:"total"`
	Items               []LineItemResponse `json:"items"`
	ItemCount           int                `json:"item_count"`
	PaymentMethod       *string            `json:"payment_method,omitempty"`
	PaymentStatus       *string            `json:"payment_status,omitempty"`
	PrinterID           *uuid.UUID         `json:"printer_id,omitempty"`
	AllowedTransitions  []string           `json:"allowed_transitions"`
	PaidAt              *time.Time         `json:"paid_at,omitempty"`
	ProductionStartedAt *time.Time         `json:"production_started_at,omitempty"`
	PrintedAt           *time.Time         `json:"printed_at,omitempty"`
	ShippedAt           *time.Time         `json:"shipped_at,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
	CanceledAt          *time.Time         `json:"canceled_at,omitempty"`
	Version             int                `json:"version"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// OrderListItemResponse is the summary shown in order listings
type OrderListItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProducerID uuid.UUID       `json:"producer_id"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// HistoryEntryResponse is one recorded status change
type HistoryEntryResponse struct {
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToLineItemResponse converts a domain line item to its response
func ToLineItemResponse(li *order.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:              li.ID,
		OrderID:         li.OrderID,
		ProductID:       li.ProductID,
		CustomizationID: li.CustomizationID,
		Quantity:        li.Quantity(),
		UnitPrice:       li.UnitPrice(),
		Subtotal:        li.Subtotal(),
		CreatedAt:       li.CreatedAt,
		UpdatedAt:       li.UpdatedAt,
	}
}

// ToOrderResponse converts a domain order to its response
func ToOrderResponse(o *order.Order) OrderResponse {
	items := o.Items()
	itemResponses := make([]LineItemResponse, len(items))
	for i := range items {
		itemResponses[i] = ToLineItemResponse(&items[i])
	}

	allowed := o.Status().AllowedTransitions()
	allowedStrings := make([]string, len(allowed))
	for i, s := range allowed {
		allowedStrings[i] = s.String()
	}

	ts := o.Timestamps()
	resp := OrderResponse{
		ID:                  o.ID,
		BuyerID:             o.BuyerID,
		ProducerID:          o.ProducerID,
		Status:              o.Status().String(),
		Total:               o.Total(),
		Items:               itemResponses,
		ItemCount:           len(items),
		PrinterID:           o.PrinterID(),
		AllowedTransitions:  allowedStrings,
		PaidAt:              ts.PaidAt,
		ProductionStartedAt: ts.ProductionStartedAt,
		PrintedAt:           ts.PrintedAt,
		ShippedAt:           ts.ShippedAt,
		CompletedAt:         ts.CompletedAt,
		CanceledAt:          ts.CanceledAt,
		Version:             o.GetVersion(),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if p := o.Payment(); p != nil {
		method := string(p.Method)
		status := string(p.Status)
		resp.PaymentMethod = &method
		resp.PaymentStatus = &status
	}
	return resp
}

// ToOrderListItemResponse converts a domain order to its list summary
func ToOrderListItemResponse(o *order.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:         o.ID,
		ProducerID: o.ProducerID,
		Status:     o.Status().String(),
		Total:      o.Total(),
		ItemCount:  o.ItemCount(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// ToHistoryEntryResponses converts history entries to responses
func ToHistoryEntryResponses(entries []order.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			From:       e.From.String(),
			To:         e.To.String(),
			OccurredAt: e.OccurredAt,
		}
	}
	return out
}
