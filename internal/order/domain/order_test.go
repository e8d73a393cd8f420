package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	order := Order{
		Lines: []OrderLine{
			{ProductID: 1, Quantity: 2, UnitPrice: Money{Amount: 500, Currency: "INR"}},
			{ProductID: 2, Quantity: 1, UnitPrice: Money{Amount: 1000, Currency: "INR"}},
		},
		Currency: "INR",
	}

	order.ComputeTotals(10, 500)

	assert.Equal(t, int64(2000), order.Subtotal)
	assert.Equal(t, int64(200), order.Tax)
	assert.Equal(t, int64(500), order.ShippingFee)
	assert.Equal(t, int64(2700), order.Total)
	assert.Equal(t, Money{Amount: 2700, Currency: "INR"}, order.TotalPrice())
}

func TestComputeTotals_EmptyLines(t *testing.T) {
	order := Order{}
	order.ComputeTotals(10, 500)

	assert.Equal(t, int64(0), order.Subtotal)
	assert.Equal(t, int64(0), order.Tax)
	assert.Equal(t, int64(500), order.Total)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusConfirmed, OrderStatusCancelled, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
	}

	for _, tc := range cases {
		assert.Equal(
			t,
			tc.allowed,
			tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to,
		)
	}
}

func TestCartSnapshot(t *testing.T) {
	assert.True(t, CartSnapshot{}.Empty())

	snapshot := CartSnapshot{
		Items: []CartItem{
			{ProductID: 3, Quantity: 1},
			{ProductID: 1, Quantity: 2},
			{ProductID: 3, Quantity: 4},
		},
	}

	assert.False(t, snapshot.Empty())
	assert.Equal(t, []int64{3, 1}, snapshot.DistinctProductIDs())
}

func TestOrderLineTotal(t *testing.T) {
	line := OrderLine{Quantity: 3, UnitPrice: Money{Amount: 150, Currency: "INR"}}
	assert.Equal(t, int64(450), line.Total())
}
