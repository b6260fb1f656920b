package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Timestamps records when each lifecycle transition happened.
// Every field is written once, by the transition it names.
type Timestamps struct {
	PaidAt              *time.Time
	ProductionStartedAt *time.Time
	PrintedAt           *time.Time
	ShippedAt           *time.Time
	CompletedAt         *time.Time
	CanceledAt          *time.Time
}

// Order is the aggregate root for one purchase.
//
// status and total are unexported: status is only written by Transition and
// total only by the ledger after an item mutation.
type Order struct {
	shared.BaseAggregateRoot
	BuyerID    uuid.UUID
	ProducerID uuid.UUID

	status     Status
	total      decimal.Decimal
	items      []LineItem
	payment    *Payment
	printerID  *uuid.UUID
	timestamps Timestamps
}

// NewOrder opens an order in created status with no items and zero total
func NewOrder(buyerID, producerID uuid.UUID, at time.Time) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if producerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCER", "Producer ID cannot be empty")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(at),
		BuyerID:           buyerID,
		ProducerID:        producerID,
		status:            StatusCreated,
		total:             decimal.Zero,
		items:             make([]LineItem, 0),
	}
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return o, nil
}

// State is the full persisted form of an order, used by repositories
type State struct {
	ID         uuid.UUID
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	BuyerID    uuid.UUID
	ProducerID uuid.UUID
	Status     Status
	Items      []LineItem
	Payment    *Payment
	PrinterID  *uuid.UUID
	Timestamps Timestamps
}

// Restore rebuilds an order from persisted state. The total is recomputed
// from the loaded items, so a restored order is always consistent with the
// item set it carries.
func Restore(s State) *Order {
	items := s.Items
	if items == nil {
		items = make([]LineItem, 0)
	}
	o := &Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
			Version:    s.Version,
		},
		BuyerID:    s.BuyerID,
		ProducerID: s.ProducerID,
		status:     s.Status,
		items:      items,
		payment:    s.Payment,
		printerID:  s.PrinterID,
		timestamps: s.Timestamps,
	}
	o.total = Recompute(o)
	return o
}

// Snapshot returns the persisted form of the order. Restore(o.Snapshot())
// yields an equivalent order without pending events.
func (o *Order) Snapshot() State {
	return State{
		ID:         o.ID,
		Version:    o.Version,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		BuyerID:    o.BuyerID,
		ProducerID: o.ProducerID,
		Status:     o.status,
		Items:      o.Items(),
		Payment:    o.payment,
		PrinterID:  o.printerID,
		Timestamps: o.timestamps,
	}
}

// Status returns the current lifecycle status
func (o *Order) Status() Status {
	return o.status
}

// Total returns the ledger total of the live items
func (o *Order) Total() decimal.Decimal {
	return o.total
}

// Items returns a copy of the live line items
func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.items))
	copy(out, o.items)
	return out
}

// ItemCount returns the number of live line items
func (o *Order) ItemCount() int {
	return len(o.items)
}

// Item returns a copy of the item with the given ID
func (o *Order) Item(itemID uuid.UUID) (*LineItem, bool) {
	i := o.indexOf(itemID)
	if i < 0 {
		return nil, false
	}
	item := o.items[i]
	return &item, true
}

// Payment returns what was recorded when the order was paid, or nil
func (o *Order) Payment() *Payment {
	return o.payment
}

// PrinterID returns the printer that printed the order, or nil
func (o *Order) PrinterID() *uuid.UUID {
	return o.printerID
}

// Timestamps returns the lifecycle timestamps
func (o *Order) Timestamps() Timestamps {
	return o.timestamps
}

// AddItem adds a line item. Only allowed while the order is created.
func (o *Order) AddItem(productID, customizationID uuid.UUID, quantity int, unitPrice decimal.Decimal, at time.Time) (*LineItem, error) {
	if !o.status.AcceptsItemChanges() {
		return nil, errOrderLocked(o.status)
	}

	item, err := NewLineItem(o.ID, productID, customizationID, quantity, unitPrice, at)
	if err != nil {
		return nil, err
	}

	o.items = append(o.items, *item)
	o.itemsChanged(item.ID, ItemChangeAdded, at)
	return item, nil
}

// UpdateItem changes the quantity and/or unit price of an item. Nil leaves
// the field unchanged.
func (o *Order) UpdateItem(itemID uuid.UUID, quantity *int, unitPrice *decimal.Decimal, at time.Time) (*LineItem, error) {
	if !o.status.AcceptsItemChanges() {
		return nil, errOrderLocked(o.status)
	}

	i := o.indexOf(itemID)
	if i < 0 {
		return nil, ErrItemNotFound(itemID)
	}
	if err := o.items[i].apply(quantity, unitPrice, at); err != nil {
		return nil, err
	}

	o.itemsChanged(itemID, ItemChangeUpdated, at)
	item := o.items[i]
	return &item, nil
}

// RemoveItem deletes an item. Removing the last item leaves the order open
// with a zero total.
func (o *Order) RemoveItem(itemID uuid.UUID, at time.Time) error {
	if !o.status.AcceptsItemChanges() {
		return errOrderLocked(o.status)
	}

	i := o.indexOf(itemID)
	if i < 0 {
		return ErrItemNotFound(itemID)
	}
	o.items = append(o.items[:i], o.items[i+1:]...)

	o.itemsChanged(itemID, ItemChangeRemoved, at)
	return nil
}

// ConfirmPayment moves a created order to paid after the payability check
// and records the payment.
func (o *Order) ConfirmPayment(method PaymentMethod, status PaymentStatus, at time.Time) error {
	if !method.IsValid() {
		return shared.NewDomainError(CodeInvalidPaymentMethod, "Unsupported payment method: "+string(method))
	}
	if status == "" {
		status = DefaultPaymentStatus
	}
	if !status.IsValid() {
		return shared.NewDomainError(CodeInvalidPaymentStatus, "Unsupported payment status: "+string(status))
	}
	if !o.status.CanTransitionTo(StatusPaid) {
		return errIllegalTransition(o.status, StatusPaid)
	}
	if err := ValidatePayable(o); err != nil {
		return err
	}

	o.payment = &Payment{Method: method, Status: status}
	return Transition(o, StatusPaid, at)
}

// productionTargets are the statuses Advance may move to
var productionTargets = map[Status]bool{
	StatusInProduction: true,
	StatusPrinted:      true,
	StatusShipped:      true,
	StatusCompleted:    true,
}

// Advance moves the order along the production chain. printerID may only be
// given when the target is printed.
func (o *Order) Advance(target Status, printerID *uuid.UUID, at time.Time) error {
	if !productionTargets[target] {
		return errIllegalTransition(o.status, target)
	}
	if printerID != nil && target != StatusPrinted {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "A printer can only be attached when marking an order printed")
	}
	if !o.status.CanTransitionTo(target) {
		return errIllegalTransition(o.status, target)
	}

	if printerID != nil {
		id := *printerID
		o.printerID = &id
	}
	return Transition(o, target, at)
}

// Cancel moves the order to canceled. Allowed from created and paid only.
func (o *Order) Cancel(at time.Time) error {
	return Transition(o, StatusCanceled, at)
}

func (o *Order) indexOf(itemID uuid.UUID) int {
	for i := range o.items {
		if o.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// itemsChanged runs the ledger once for the mutation that just happened
func (o *Order) itemsChanged(itemID uuid.UUID, change string, at time.Time) {
	o.total = Recompute(o)
	o.Touch(at)
	o.AddDomainEvent(NewOrderItemsChangedEvent(o, itemID, change, at))
}

var _ shared.AggregateRoot = (*Order)(nil)
