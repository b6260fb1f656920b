package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/printmarket/backend/internal/application/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/interfaces/http/router"
)

// OrderService is the application surface the order endpoints call
type OrderService interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, req orderapp.CreateOrderRequest) (*orderapp.OrderResponse, error)
	AddItem(ctx context.Context, buyerID, orderID uuid.UUID, req orderapp.AddItemRequest) (*orderapp.LineItemResponse, error)
	UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req orderapp.UpdateItemRequest) (*orderapp.LineItemResponse, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*orderapp.OrderResponse, error)
	ConfirmPayment(ctx context.Context, buyerID, orderID uuid.UUID, req orderapp.ConfirmPaymentRequest) (*orderapp.OrderResponse, error)
	Advance(ctx context.Context, orderID uuid.UUID, req orderapp.AdvanceRequest) (*orderapp.OrderResponse, error)
	Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, req orderapp.ListOrdersRequest) ([]orderapp.OrderListItemResponse, int64, error)
	GetHistory(ctx context.Context, buyerID, orderID uuid.UUID) ([]orderapp.HistoryEntryResponse, error)
}

// OrderHandler serves the buyer order endpoints and the production advance endpoint
type OrderHandler struct {
	BaseHandler
	service OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RouteGroups returns the order route groups. productionGuard runs in front
// of the advance endpoint, usually a permission check.
func (h *OrderHandler) RouteGroups(productionGuard ...gin.HandlerFunc) []*router.DomainGroup {
	orders := router.NewDomainGroup("orders", "/orders").
		POST("", h.CreateOrder).
		GET("", h.ListOrders).
		GET("/:id", h.GetOrder).
		GET("/:id/history", h.GetHistory).
		POST("/:id/items", h.AddItem).
		POST("/:id/pay", h.ConfirmPayment).
		POST("/:id/cancel", h.Cancel)

	items := router.NewDomainGroup("order-items", "/order-items").
		PUT("/:item_id", h.UpdateItem).
		DELETE("/:item_id", h.RemoveItem)

	production := router.NewDomainGroup("production", "/production").
		Use(productionGuard...).
		POST("/orders/:id/advance", h.Advance)

	return []*router.DomainGroup{orders, items, production}
}

// CreateOrder opens an empty order for the authenticated buyer
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListOrders pages through the buyer's orders, newest first
func (h *OrderHandler) ListOrders(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	var req orderapp.ListOrdersRequest
	if !h.bindQuery(c, &req) {
		return
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize()
	h.SuccessWithMeta(c, orders, total, page.Page, page.PageSize)
}

// GetOrder returns one of the buyer's orders with its items
func (h *OrderHandler) GetOrder(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetOrder(c.Request.Context(), buyerID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetHistory returns the status changes of one of the buyer's orders
func (h *OrderHandler) GetHistory(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.GetHistory(c.Request.Context(), buyerID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, entries)
}

// AddItem adds a line to an order that is still being built
func (h *OrderHandler) AddItem(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), buyerID, orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateItem changes the quantity or unit price of a line
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "item_id")
	if !ok {
		return
	}
	var req orderapp.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), buyerID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem deletes a line and returns the recalculated order
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "item_id")
	if !ok {
		return
	}

	resp, err := h.service.RemoveItem(c.Request.Context(), buyerID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ConfirmPayment records the payment and moves the order to paid
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.ConfirmPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ConfirmPayment(c.Request.Context(), buyerID, orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels a created or paid order
func (h *OrderHandler) Cancel(c *gin.Context) {
	buyerID, ok := h.buyer(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), buyerID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Advance moves an order along in_production, printed, shipped, completed
func (h *OrderHandler) Advance(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.AdvanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Advance(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
