package tests

import (
	"fmt"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
)

func (s *IntegrationTestSuite) TestCancelOrder_PendingOrder() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 2})

	order := s.placeOrder(999, nil)

	cancelled, err := s.OrderService.CancelOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, cancelled.Status)

	var status string
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT status FROM orders WHERE id = $1`,
		order.ID,
	).Scan(&status))
	s.Equal("CANCELLED", status)

	var count int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND event_type = 'OrderCancelled'`,
		fmt.Sprintf("%d", order.ID),
	).Scan(&count))
	s.Equal(int64(1), count)
}

func (s *IntegrationTestSuite) TestCancelOrder_TwiceRejected() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	_, err := s.OrderService.CancelOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)

	_, err = s.OrderService.CancelOrder(s.Ctx, order.ID, 999)
	s.Require().ErrorIs(err, domain.ErrInvalidStateTransition)
}

func (s *IntegrationTestSuite) TestCancelOrder_NotOwner() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	_, err := s.OrderService.CancelOrder(s.Ctx, order.ID, 123)
	s.Require().ErrorIs(err, domain.ErrNotOwner)
}

func (s *IntegrationTestSuite) TestUpdateShippingAddress_PendingOnly() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	newAddr := domain.Address{
		Street: "1 Brigade Road", City: "Bengaluru", State: "Karnataka",
		Pincode: "560025", Country: "IN",
	}

	updated, err := s.OrderService.UpdateShippingAddress(s.Ctx, order.ID, 999, newAddr)
	s.Require().NoError(err)
	s.Equal("1 Brigade Road", updated.ShippingAddress.Street)

	_, err = s.OrderService.CancelOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)

	_, err = s.OrderService.UpdateShippingAddress(s.Ctx, order.ID, 999, newAddr)
	s.Require().ErrorIs(err, domain.ErrInvalidStateTransition)
}
