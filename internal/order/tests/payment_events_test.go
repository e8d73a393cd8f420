package tests

import (
	"time"

	"github.com/rahul-codes-hash/microservices/internal/order/domain"
)

func (s *IntegrationTestSuite) TestPaymentCompleted_ConfirmsOrder() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	event := &domain.PaymentCompletedEvent{
		OrderID:   order.ID,
		PaymentID: 1,
		Amount:    order.Total,
		PaidAt:    time.Now(),
	}

	s.Require().NoError(s.OrderService.HandlePaymentCompleted(s.Ctx, 5001, event))

	confirmed, err := s.OrderService.GetOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusConfirmed, confirmed.Status)
}

func (s *IntegrationTestSuite) TestPaymentCompleted_DuplicateEventIsNoop() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	event := &domain.PaymentCompletedEvent{
		OrderID:   order.ID,
		PaymentID: 1,
		Amount:    order.Total,
		PaidAt:    time.Now(),
	}

	s.Require().NoError(s.OrderService.HandlePaymentCompleted(s.Ctx, 5002, event))
	s.Require().NoError(s.OrderService.HandlePaymentCompleted(s.Ctx, 5002, event))

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 5002`,
	).Scan(&processedCount))
	s.Equal(int64(1), processedCount)

	confirmed, err := s.OrderService.GetOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusConfirmed, confirmed.Status)
}

func (s *IntegrationTestSuite) TestPaymentFailed_CancelsAndEmitsCancellation() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 2})

	order := s.placeOrder(999, nil)

	event := &domain.PaymentFailedEvent{
		OrderID:   order.ID,
		PaymentID: 2,
		Amount:    order.Total,
		FailedAt:  time.Now(),
	}

	s.Require().NoError(s.OrderService.HandlePaymentFailed(s.Ctx, 5003, event))

	cancelled, err := s.OrderService.GetOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, cancelled.Status)

	var count int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderCancelled'`,
	).Scan(&count))
	s.Equal(int64(1), count)
}

func (s *IntegrationTestSuite) TestPaymentCompleted_AfterCancellationIgnored() {
	s.Catalog.addProduct(1, 500, 10)
	s.seedCart(999, domain.CartItem{ProductID: 1, Quantity: 1})

	order := s.placeOrder(999, nil)

	_, err := s.OrderService.CancelOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)

	event := &domain.PaymentCompletedEvent{
		OrderID:   order.ID,
		PaymentID: 3,
		Amount:    order.Total,
		PaidAt:    time.Now(),
	}

	// A late success for a cancelled order is consumed without wedging.
	s.Require().NoError(s.OrderService.HandlePaymentCompleted(s.Ctx, 5004, event))

	current, err := s.OrderService.GetOrder(s.Ctx, order.ID, 999)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCancelled, current.Status)
}
