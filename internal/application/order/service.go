package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/order"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	spanService = "order"

	// DefaultLockWait bounds how long a mutation waits for a busy order
	DefaultLockWait = 2 * time.Second
)

// Dependencies are the ports OrderService needs
type Dependencies struct {
	Orders    order.Repository
	History   order.HistoryRepository
	Producers order.ProducerEligibility
	Catalog   order.Catalog
	Printers  order.PrinterDirectory
	Locker    shared.Locker
}

// Option configures an OrderService
type Option func(*OrderService)

// WithLockWait sets the bounded wait for the per-order lock
func WithLockWait(d time.Duration) Option {
	return func(s *OrderService) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *OrderService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OrderService handles order business operations. Every mutation of an
// existing order holds the order's lock and runs inside one repository
// transaction, so concurrent writers are serialized per order.
type OrderService struct {
	orders    order.Repository
	history   order.HistoryRepository
	producers order.ProducerEligibility
	catalog   order.Catalog
	printers  order.PrinterDirectory
	locker    shared.Locker
	lockWait  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(deps Dependencies, opts ...Option) *OrderService {
	s := &OrderService{
		orders:    deps.Orders,
		history:   deps.History,
		producers: deps.Producers,
		catalog:   deps.Catalog,
		printers:  deps.Printers,
		locker:    deps.Locker,
		lockWait:  DefaultLockWait,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder opens an empty order for buyerID. The producer must be active
// and approved.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuyerID, buyerID.String(), telemetry.SpanAttrProducerID, req.ProducerID.String())

	eligible, err := s.producers.CanReceiveOrders(ctx, req.ProducerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("check producer eligibility: %w", err)
	}
	if !eligible {
		telemetry.RecordError(span, order.ErrInactiveProducer)
		return nil, order.ErrInactiveProducer
	}

	o, err := order.NewOrder(buyerID, req.ProducerID, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.String("producer_id", req.ProducerID.String()),
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, o.ID.String())
	telemetry.SetOK(span)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// AddItem appends a line to a created order
func (s *OrderService) AddItem(ctx context.Context, buyerID, orderID uuid.UUID, req AddItemRequest) (*LineItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "add_item")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String(), telemetry.SpanAttrProductID, req.ProductID.String())

	if err := s.checkCatalog(ctx, req.ProductID, req.CustomizationID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var added *order.LineItem
	_, err := s.mutate(ctx, orderID, func(o *order.Order) error {
		if o.BuyerID != buyerID {
			return order.ErrOrderNotFound(orderID)
		}
		item, err := o.AddItem(req.ProductID, req.CustomizationID, req.Quantity, req.UnitPrice, s.now())
		if err != nil {
			return err
		}
		added = item
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	resp := ToLineItemResponse(added)
	return &resp, nil
}

// UpdateItem changes quantity and/or unit price of a line item
func (s *OrderService) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req UpdateItemRequest) (*LineItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "update_item")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrItemID, itemID.String())

	if req.Quantity == nil && req.UnitPrice == nil {
		err := shared.NewDomainError(shared.ErrInvalidInput.Code, "Nothing to update: give quantity or unit_price")
		telemetry.RecordError(span, err)
		return nil, err
	}

	orderID, err := s.orders.FindOrderIDByItem(ctx, itemID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	var updated *order.LineItem
	_, err = s.mutate(ctx, orderID, func(o *order.Order) error {
		if o.BuyerID != buyerID {
			return order.ErrItemNotFound(itemID)
		}
		item, err := o.UpdateItem(itemID, req.Quantity, req.UnitPrice, s.now())
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	resp := ToLineItemResponse(updated)
	return &resp, nil
}

// RemoveItem deletes a line item and returns the updated order
func (s *OrderService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "remove_item")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrItemID, itemID.String())

	orderID, err := s.orders.FindOrderIDByItem(ctx, itemID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	o, err := s.mutate(ctx, orderID, func(o *order.Order) error {
		if o.BuyerID != buyerID {
			return order.ErrItemNotFound(itemID)
		}
		return o.RemoveItem(itemID, s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ConfirmPayment records the payment of a created order and moves it to paid
func (s *OrderService) ConfirmPayment(ctx context.Context, buyerID, orderID uuid.UUID, req ConfirmPaymentRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "confirm_payment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String(), telemetry.SpanAttrPayment, req.PaymentMethod)

	o, err := s.mutate(ctx, orderID, func(o *order.Order) error {
		if o.BuyerID != buyerID {
			return order.ErrOrderNotFound(orderID)
		}
		return o.ConfirmPayment(order.PaymentMethod(req.PaymentMethod), order.PaymentStatus(req.PaymentStatus), s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order paid",
		zap.String("order_id", orderID.String()),
		zap.String("total", o.Total().String()),
		zap.String("payment_method", req.PaymentMethod),
	)
	telemetry.SetOK(span)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Advance moves a paid order along the production flow. It is driven by the
// producer side and is not scoped to a buyer.
func (s *OrderService) Advance(ctx context.Context, orderID uuid.UUID, req AdvanceRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "advance")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String(), telemetry.SpanAttrTargetState, req.Status)

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.PrinterID != nil {
		exists, err := s.printers.PrinterExists(ctx, *req.PrinterID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("check printer: %w", err)
		}
		if !exists {
			err := shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Printer %s not found", *req.PrinterID))
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	o, err := s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.Advance(target, req.PrinterID, s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order advanced",
		zap.String("order_id", orderID.String()),
		zap.String("status", o.Status().String()),
	)
	telemetry.SetOK(span)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Cancel cancels a created or paid order
func (s *OrderService) Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	o, err := s.mutate(ctx, orderID, func(o *order.Order) error {
		if o.BuyerID != buyerID {
			return order.ErrOrderNotFound(orderID)
		}
		return o.Cancel(s.now())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("order canceled", zap.String("order_id", orderID.String()))
	telemetry.SetOK(span)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetOrder returns one of the buyer's orders with its items
func (s *OrderService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "get")
	defer span.End()

	o, err := s.orders.FindByIDForBuyer(ctx, orderID, buyerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListOrders pages through the buyer's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID, req ListOrdersRequest) ([]OrderListItemResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "list")
	defer span.End()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()

	orders, total, err := s.orders.ListByBuyer(ctx, buyerID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	out := make([]OrderListItemResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderListItemResponse(o)
	}
	return out, total, nil
}

// GetHistory returns the recorded status changes of one of the buyer's orders
func (s *OrderService) GetHistory(ctx context.Context, buyerID, orderID uuid.UUID) ([]HistoryEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "history")
	defer span.End()

	if _, err := s.orders.FindByIDForBuyer(ctx, orderID, buyerID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	entries, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToHistoryEntryResponses(entries), nil
}

// mutate holds the order lock for the duration of one repository transaction
func (s *OrderService) mutate(ctx context.Context, orderID uuid.UUID, fn order.MutateFunc) (*order.Order, error) {
	unlock, err := s.locker.Acquire(ctx, lockKey(orderID), s.lockWait)
	if err != nil {
		if errors.Is(err, shared.ErrContention) {
			s.logger.Warn("order lock wait exceeded",
				zap.String("order_id", orderID.String()),
				zap.Duration("wait", s.lockWait),
			)
		}
		return nil, err
	}
	defer unlock()

	o, err := s.orders.Mutate(ctx, orderID, fn)
	if err != nil && errors.Is(err, shared.ErrContention) {
		s.logger.Warn("order row contended", zap.String("order_id", orderID.String()))
	}
	return o, err
}

func (s *OrderService) checkCatalog(ctx context.Context, productID, customizationID uuid.UUID) error {
	exists, err := s.catalog.ProductExists(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Product %s not found", productID))
	}
	belongs, err := s.catalog.CustomizationOfProduct(ctx, customizationID, productID)
	if err != nil {
		return fmt.Errorf("check customization: %w", err)
	}
	if !belongs {
		return shared.NewDomainError(shared.ErrNotFound.Code,
			fmt.Sprintf("Customization %s not found for product %s", customizationID, productID))
	}
	return nil
}

func lockKey(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}
