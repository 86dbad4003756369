package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusPackaged, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusPackaged, OrderStatusShipped, true},
		{OrderStatusPackaged, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusReturned, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusReturned, true},
		{OrderStatusDelivered, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusReturned, OrderStatusPending, false},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_IllegalRejected(t *testing.T) {
	order := &Order{Status: OrderStatusPending}

	history, err := order.Transition(OrderStatusShipped, "", "admin", time.Now())
	require.ErrorIs(t, err, ErrIllegalTransition)
	require.Nil(t, history)
	// 狀態維持不變
	require.Equal(t, OrderStatusPending, order.Status)
}

func TestTransition_AppendsHistory(t *testing.T) {
	order := &Order{ID: 7, Status: OrderStatusProcessing}
	now := time.Now().UTC()

	history, err := order.Transition(OrderStatusPackaged, "packed", "warehouse", now)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPackaged, order.Status)
	require.Equal(t, uint(7), history.OrderID)
	require.Equal(t, OrderStatusPackaged, history.Status)
	require.Equal(t, "packed", history.Note)
	require.Equal(t, "warehouse", history.Actor)
}

func TestTransition_DeliveredSetsDeliveredAt(t *testing.T) {
	order := &Order{Status: OrderStatusShipped}
	now := time.Now().UTC()

	_, err := order.Transition(OrderStatusDelivered, "", "courier", now)
	require.NoError(t, err)
	require.NotNil(t, order.DeliveredAt)
	require.Equal(t, now, *order.DeliveredAt)
}

func TestTransition_ReturnWithinWindow(t *testing.T) {
	deliveredAt := time.Now().UTC().Add(-3 * 24 * time.Hour)
	order := &Order{Status: OrderStatusDelivered, DeliveredAt: &deliveredAt}

	_, err := order.Transition(OrderStatusReturned, "defect", "user", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, OrderStatusReturned, order.Status)
}

func TestTransition_ReturnWindowExpired(t *testing.T) {
	deliveredAt := time.Now().UTC().Add(-8 * 24 * time.Hour)
	order := &Order{Status: OrderStatusDelivered, DeliveredAt: &deliveredAt}

	_, err := order.Transition(OrderStatusReturned, "", "user", time.Now().UTC())
	require.ErrorIs(t, err, ErrReturnWindowExpired)
	require.Equal(t, OrderStatusDelivered, order.Status)
}

func TestIsCancellable(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusPackaged} {
		require.True(t, (&Order{Status: status}).IsCancellable(), string(status))
	}
	for _, status := range []OrderStatus{OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned} {
		require.False(t, (&Order{Status: status}).IsCancellable(), string(status))
	}
}

func TestCompletedPayment(t *testing.T) {
	order := &Order{
		Payments: []Payment{
			{ID: 1, Status: PaymentStatusFailed},
			{ID: 2, Status: PaymentStatusCompleted},
		},
	}
	payment := order.CompletedPayment()
	require.NotNil(t, payment)
	require.Equal(t, uint(2), payment.ID)

	require.Nil(t, (&Order{}).CompletedPayment())
}
