package tests

import (
	"fmt"
	"time"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
)

func (s *IntegrationTestSuite) TestPlaceOrder_Success() {
	s.Catalog.addProduct(1, 500, 10)
	s.Catalog.addProduct(2, 1000, 5)
	s.seedCart(999,
		domain.CartItem{ProductID: 1, Quantity: 2},
		domain.CartItem{ProductID: 2, Quantity: 1},
	)

	order := s.placeOrder(999, nil)

	s.Equal(domain.OrderStatusPending, order.Status)
	s.Equal(int64(2000), order.Subtotal)
	s.Equal(int64(200), order.Tax)
	s.Equal(int64(500), order.ShippingFee)
	s.Equal(int64(2700), order.Total)
	s.Equal("INR", order.Currency)

	// Committed holds made the deduction permanent.
	s.Equal(int64(8), s.Catalog.stockOf(1))
	s.Equal(int64(4), s.Catalog.stockOf(2))
	s.Len(s.Catalog.committed, 2)

	var outboxID int64
	err := s.DbPool.QueryRow(
		s.Ctx,
		`SELECT id FROM outbox WHERE aggregate_id = $1 AND event_type = 'OrderCreated'`,
		fmt.Sprintf("%d", order.ID),
	).Scan(&outboxID)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time

		err := s.DbPool.QueryRow(
			s.Ctx,
			`SELECT published_at FROM outbox WHERE id = $1`,
			outboxID,
		).Scan(&publishedAt)

		return err == nil && publishedAt != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestPlaceOrder_EmptyCartRejected() {
	_, err := s.OrderService.PlaceOrder(s.Ctx, &domain.OrderRequest{
		UserID: 999,
		ShippingAddress: domain.Address{
			Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
			Pincode: "560001", Country: "IN",
		},
	})

	s.Require().ErrorIs(err, domain.ErrEmptyCart)

	var count int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	s.Equal(int64(0), count)
}

func (s *IntegrationTestSuite) TestPlaceOrder_InsufficientStockLeavesNothingBehind() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 11})

	_, err := s.OrderService.PlaceOrder(s.Ctx, &domain.OrderRequest{
		UserID: 999,
		ShippingAddress: domain.Address{
			Street: "12 MG Road", City: "Bengaluru", State: "Karnataka",
			Pincode: "560001", Country: "IN",
		},
	})

	var insufficient *domain.InsufficientStockError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(int64(1), insufficient.ProductID)

	// No order, no outbox entry, stock untouched.
	var count int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	s.Equal(int64(0), count)
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM outbox`).Scan(&count))
	s.Equal(int64(0), count)
	s.Equal(int64(10), s.Catalog.stockOf(1))
}

func (s *IntegrationTestSuite) TestPlaceOrder_IdempotencyKeyReturnsSameOrder() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	key := "checkout-abc"
	first := s.placeOrder(999, &key)
	second := s.placeOrder(999, &key)

	s.Equal(first.ID, second.ID)

	// Only one placement actually ran.
	var count int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count))
	s.Equal(int64(1), count)
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderCreated'`,
	).Scan(&count))
	s.Equal(int64(1), count)
	s.Equal(int64(9), s.Catalog.stockOf(1))
}

func (s *IntegrationTestSuite) TestGetOrder_OwnerOnly() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	fetched, err := s.OrderService.GetOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(order.ID, fetched.ID)
	s.Require().Len(fetched.Lines, 1)
	s.Equal(int64(500), fetched.Lines[0].UnitPrice.Amount)

	_, err = s.OrderService.GetOrder(s.Ctx, order.ID, 1000)
	s.Require().ErrorIs(err, domain.ErrNotOwner)
}
