package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(uuid.New(), uuid.New(), testNow)
	require.NoError(t, err)
	return o
}

func addTestItem(t *testing.T, o *Order, qty int, price string) *LineItem {
	t.Helper()
	item, err := o.AddItem(uuid.New(), uuid.New(), qty, decimal.RequireFromString(price), testNow)
	require.NoError(t, err)
	return item
}

// orderIn returns an order restored directly into status s with one item
func orderIn(t *testing.T, s Status) *Order {
	t.Helper()
	id := uuid.New()
	item := RestoreLineItem(shared.NewBaseEntity(testNow), id, uuid.New(), uuid.New(), 1, decimal.NewFromInt(10))
	return Restore(State{
		ID:         id,
		Version:    3,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
		BuyerID:    uuid.New(),
		ProducerID: uuid.New(),
		Status:     s,
		Items:      []LineItem{item},
	})
}

func TestNewOrder(t *testing.T) {
	t.Run("opens in created with zero total", func(t *testing.T) {
		o := newTestOrder(t)
		assert.Equal(t, StatusCreated, o.Status())
		assert.True(t, o.Total().IsZero())
		assert.Equal(t, 0, o.ItemCount())
		assert.Equal(t, 1, o.Version)
		assert.Equal(t, testNow, o.CreatedAt)
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderCreated, o.GetDomainEvents()[0].EventType())
	})

	t.Run("requires buyer and producer", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, uuid.New(), testNow)
		assert.Error(t, err)
		_, err = NewOrder(uuid.New(), uuid.Nil, testNow)
		assert.Error(t, err)
	})
}

func TestLineItem_Subtotal(t *testing.T) {
	item, err := NewLineItem(uuid.New(), uuid.New(), uuid.New(), 3, decimal.RequireFromString("7.50"), testNow)
	require.NoError(t, err)
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("22.50")))

	_, err = NewLineItem(uuid.New(), uuid.New(), uuid.New(), 0, decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewLineItem(uuid.New(), uuid.New(), uuid.New(), 1, decimal.NewFromInt(-1), testNow)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	free, err := NewLineItem(uuid.New(), uuid.New(), uuid.New(), 2, decimal.Zero, testNow)
	require.NoError(t, err)
	assert.True(t, free.Subtotal().IsZero())
}

func TestOrder_ItemLedger(t *testing.T) {
	o := newTestOrder(t)

	first := addTestItem(t, o, 2, "10.00")
	assert.True(t, o.Total().Equal(decimal.RequireFromString("20.00")))

	addTestItem(t, o, 1, "5.00")
	assert.True(t, o.Total().Equal(decimal.RequireFromString("25.00")))

	require.NoError(t, o.RemoveItem(first.ID, testNow))
	assert.True(t, o.Total().Equal(decimal.RequireFromString("5.00")))
	assert.Equal(t, 1, o.ItemCount())
}

func TestOrder_UpdateItem(t *testing.T) {
	o := newTestOrder(t)
	item := addTestItem(t, o, 2, "10.00")
	addTestItem(t, o, 1, "1.00")

	qty := 5
	updated, err := o.UpdateItem(item.ID, &qty, nil, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity())
	assert.True(t, updated.Subtotal().Equal(decimal.NewFromInt(50)))
	assert.True(t, o.Total().Equal(decimal.NewFromInt(51)))
	assert.Equal(t, testNow.Add(time.Minute), updated.UpdatedAt)

	price := decimal.RequireFromString("2.25")
	updated, err = o.UpdateItem(item.ID, nil, &price, testNow)
	require.NoError(t, err)
	assert.True(t, updated.Subtotal().Equal(decimal.RequireFromString("11.25")))
	assert.True(t, o.Total().Equal(decimal.RequireFromString("12.25")))

	t.Run("invalid values leave the item untouched", func(t *testing.T) {
		bad := 0
		_, err := o.UpdateItem(item.ID, &bad, &price, testNow)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		got, ok := o.Item(item.ID)
		require.True(t, ok)
		assert.Equal(t, 5, got.Quantity())
		assert.True(t, o.Total().Equal(decimal.RequireFromString("12.25")))
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := o.UpdateItem(uuid.New(), &qty, nil, testNow)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrder_RemoveLastItemKeepsOrderOpen(t *testing.T) {
	o := newTestOrder(t)
	item := addTestItem(t, o, 1, "9.99")

	require.NoError(t, o.RemoveItem(item.ID, testNow))
	assert.True(t, o.Total().IsZero())
	assert.Equal(t, StatusCreated, o.Status())
}

func TestRecompute_IsIdempotent(t *testing.T) {
	o := newTestOrder(t)
	addTestItem(t, o, 3, "3.33")
	addTestItem(t, o, 2, "0.50")

	first := Recompute(o)
	second := Recompute(o)
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(o.Total()))
	assert.True(t, first.Equal(decimal.RequireFromString("10.99")))
}

func TestRestore_RecomputesTotalFromItems(t *testing.T) {
	o := orderIn(t, StatusCreated)
	assert.True(t, o.Total().Equal(decimal.NewFromInt(10)))
	assert.Empty(t, o.GetDomainEvents())
}

func TestOrder_FreezeLaw(t *testing.T) {
	for _, s := range AllStatuses() {
		if s == StatusCreated {
			continue
		}
		t.Run(string(s), func(t *testing.T) {
			o := orderIn(t, s)
			items := o.Items()
			total := o.Total()

			_, err := o.AddItem(uuid.New(), uuid.New(), 1, decimal.NewFromInt(1), testNow)
			assert.ErrorIs(t, err, ErrOrderLocked)

			qty := 9
			_, err = o.UpdateItem(items[0].ID, &qty, nil, testNow)
			assert.ErrorIs(t, err, ErrOrderLocked)

			err = o.RemoveItem(items[0].ID, testNow)
			assert.ErrorIs(t, err, ErrOrderLocked)

			assert.Equal(t, items, o.Items())
			assert.True(t, total.Equal(o.Total()))
			assert.Empty(t, o.GetDomainEvents())
		})
	}
}

func TestTransition_RejectsEveryPairOutsideTheTable(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			if from.CanTransitionTo(to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				o := orderIn(t, from)
				before := o.Timestamps()

				err := Transition(o, to, testNow)

				assert.ErrorIs(t, err, ErrIllegalTransition)
				assert.Equal(t, from, o.Status())
				assert.Equal(t, before, o.Timestamps())
				assert.Empty(t, o.GetDomainEvents())
			})
		}
	}
}

func TestTransition_StampsMatchingTimestamp(t *testing.T) {
	o := newTestOrder(t)
	addTestItem(t, o, 1, "25.00")
	o.ClearDomainEvents()

	steps := []struct {
		target Status
		stamp  func(Timestamps) *time.Time
	}{
		{StatusPaid, func(ts Timestamps) *time.Time { return ts.PaidAt }},
		{StatusInProduction, func(ts Timestamps) *time.Time { return ts.ProductionStartedAt }},
		{StatusPrinted, func(ts Timestamps) *time.Time { return ts.PrintedAt }},
		{StatusShipped, func(ts Timestamps) *time.Time { return ts.ShippedAt }},
		{StatusCompleted, func(ts Timestamps) *time.Time { return ts.CompletedAt }},
	}

	for i, step := range steps {
		at := testNow.Add(time.Duration(i+1) * time.Hour)
		require.NoError(t, Transition(o, step.target, at))
		assert.Equal(t, step.target, o.Status())
		require.NotNil(t, step.stamp(o.Timestamps()))
		assert.Equal(t, at, *step.stamp(o.Timestamps()))
	}

	// earlier stamps are never rewritten by later transitions
	assert.Equal(t, testNow.Add(time.Hour), *o.Timestamps().PaidAt)
	assert.Nil(t, o.Timestamps().CanceledAt)
	assert.Len(t, o.GetDomainEvents(), len(steps))

	ev, ok := o.GetDomainEvents()[0].(*OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, StatusCreated, ev.From)
	assert.Equal(t, StatusPaid, ev.To)
}

func TestOrder_ConfirmPayment(t *testing.T) {
	t.Run("empty order", func(t *testing.T) {
		o := newTestOrder(t)
		err := o.ConfirmPayment(PaymentMethodPix, "", testNow)
		assert.ErrorIs(t, err, ErrEmptyOrder)
		assert.Equal(t, StatusCreated, o.Status())
		assert.Nil(t, o.Payment())
		assert.Nil(t, o.Timestamps().PaidAt)
	})

	t.Run("zero total", func(t *testing.T) {
		o := newTestOrder(t)
		addTestItem(t, o, 2, "0.00")
		err := o.ConfirmPayment(PaymentMethodPix, "", testNow)
		assert.ErrorIs(t, err, ErrInvalidTotal)
		assert.Equal(t, StatusCreated, o.Status())
	})

	t.Run("pays and freezes items", func(t *testing.T) {
		o := newTestOrder(t)
		addTestItem(t, o, 1, "25.00")

		require.NoError(t, o.ConfirmPayment(PaymentMethodPix, "", testNow))
		assert.Equal(t, StatusPaid, o.Status())
		require.NotNil(t, o.Timestamps().PaidAt)
		require.NotNil(t, o.Payment())
		assert.Equal(t, PaymentMethodPix, o.Payment().Method)
		assert.Equal(t, PaymentStatusConfirmed, o.Payment().Status)

		_, err := o.AddItem(uuid.New(), uuid.New(), 1, decimal.NewFromInt(1), testNow)
		assert.ErrorIs(t, err, ErrOrderLocked)
	})

	t.Run("unknown method", func(t *testing.T) {
		o := newTestOrder(t)
		addTestItem(t, o, 1, "25.00")
		err := o.ConfirmPayment(PaymentMethod("cash"), "", testNow)
		assert.Equal(t, CodeInvalidPaymentMethod, shared.ErrorCode(err))
		assert.Equal(t, StatusCreated, o.Status())
	})

	t.Run("already paid", func(t *testing.T) {
		o := orderIn(t, StatusPaid)
		err := o.ConfirmPayment(PaymentMethodBoleto, PaymentStatusPending, testNow)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})
}

func TestOrder_Advance(t *testing.T) {
	t.Run("paid to in_production, then skipping printed fails", func(t *testing.T) {
		o := orderIn(t, StatusPaid)
		require.NoError(t, o.Advance(StatusInProduction, nil, testNow))
		assert.Equal(t, StatusInProduction, o.Status())

		err := o.Advance(StatusShipped, nil, testNow)
		assert.ErrorIs(t, err, ErrIllegalTransition)
		assert.Equal(t, StatusInProduction, o.Status())
		assert.Nil(t, o.Timestamps().ShippedAt)
	})

	t.Run("attaches printer when printed", func(t *testing.T) {
		o := orderIn(t, StatusInProduction)
		printer := uuid.New()
		require.NoError(t, o.Advance(StatusPrinted, &printer, testNow))
		require.NotNil(t, o.PrinterID())
		assert.Equal(t, printer, *o.PrinterID())
	})

	t.Run("printer rejected for other targets", func(t *testing.T) {
		o := orderIn(t, StatusPaid)
		printer := uuid.New()
		err := o.Advance(StatusInProduction, &printer, testNow)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, StatusPaid, o.Status())
	})

	t.Run("only production targets", func(t *testing.T) {
		o := orderIn(t, StatusCreated)
		assert.ErrorIs(t, o.Advance(StatusPaid, nil, testNow), ErrIllegalTransition)
		assert.ErrorIs(t, o.Advance(StatusCanceled, nil, testNow), ErrIllegalTransition)
		assert.Equal(t, StatusCreated, o.Status())
	})
}

func TestOrder_Cancel(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusPaid} {
		o := orderIn(t, s)
		require.NoError(t, o.Cancel(testNow), s)
		assert.Equal(t, StatusCanceled, o.Status())
		require.NotNil(t, o.Timestamps().CanceledAt)
	}

	for _, s := range []Status{StatusInProduction, StatusPrinted, StatusShipped, StatusCompleted, StatusCanceled} {
		o := orderIn(t, s)
		assert.ErrorIs(t, o.Cancel(testNow), ErrIllegalTransition, s)
		assert.Equal(t, s, o.Status())
	}
}

func TestOrder_SnapshotRoundTrip(t *testing.T) {
	o := newTestOrder(t)
	addTestItem(t, o, 2, "15.00")
	addTestItem(t, o, 1, "4.50")

	restored := Restore(o.Snapshot())

	assert.Equal(t, o.ID, restored.ID)
	assert.Equal(t, o.Status(), restored.Status())
	assert.True(t, o.Total().Equal(restored.Total()))
	assert.Equal(t, o.ItemCount(), restored.ItemCount())
	assert.Empty(t, restored.GetDomainEvents())
}
