package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler_Handle(t *testing.T) {
	handler := NewMockEventHandler("OrderCreated", "OrderStatusChanged")
	assert.Equal(t, []string{"OrderCreated", "OrderStatusChanged"}, handler.EventTypes())

	aggregateID := uuid.New()
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("OrderCreated", aggregateID)))
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("OrderStatusChanged", aggregateID)))

	assert.Equal(t, 2, handler.HandledCount())
	assert.Equal(t, []string{"OrderCreated", "OrderStatusChanged"}, handler.HandledTypes())
	assert.Equal(t, aggregateID, handler.Handled()[0].AggregateID())
}

func TestMockEventHandler_SetErrorAndReset(t *testing.T) {
	handler := NewMockEventHandler("OrderCreated")
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), NewTestEvent("OrderCreated", uuid.New()))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, handler.HandledCount())

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), NewTestEvent("OrderCreated", uuid.New())))
}

func TestNewTestEvent(t *testing.T) {
	aggregateID := uuid.New()
	event := NewTestEvent("OrderCreated", aggregateID)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "OrderCreated", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.False(t, event.OccurredAt().IsZero())
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		var flag atomic.Bool
		go func() {
			time.Sleep(20 * time.Millisecond)
			flag.Store(true)
		}()

		assert.True(t, WaitForCondition(t, flag.Load, time.Second, 5*time.Millisecond))
	})

	t.Run("timeout", func(t *testing.T) {
		assert.False(t, WaitForCondition(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond))
	})
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler("OrderCreated")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(context.Background(), NewTestEvent("OrderCreated", uuid.New()))
		_ = handler.Handle(context.Background(), NewTestEvent("OrderCreated", uuid.New()))
	}()

	assert.True(t, WaitForEventCount(t, handler, 2, time.Second))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-buyer"), TestBuyerID())
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, time.Minute)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.True(t, deadline.After(time.Now()))
}
