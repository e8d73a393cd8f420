package tests

import (
	"errors"
	"time"

	"github.com/rahul-codes-hash/microservices/internal/notification/domain"
)

func (s *IntegrationTestSuite) registerRecipient(userID int64, email string) {
	s.Require().NoError(s.NotificationService.HandleUserCreated(s.Ctx, 100+userID, &domain.UserCreatedEvent{
		UserID: userID,
		Email:  email,
		Name:   "Buyer",
	}))
}

func (s *IntegrationTestSuite) orderCreated(orderID, userID int64) *domain.OrderCreatedEvent {
	return &domain.OrderCreatedEvent{
		OrderID:    orderID,
		UserID:     userID,
		TotalPrice: domain.Money{Amount: 2700, Currency: "INR"},
		CreatedAt:  time.Now(),
	}
}

func (s *IntegrationTestSuite) TestHandleUserCreated_SendsWelcomeOnce() {
	s.registerRecipient(999, "buyer@example.com")
	s.Require().NoError(s.NotificationService.HandleUserCreated(s.Ctx, 1099, &domain.UserCreatedEvent{
		UserID: 999,
		Email:  "buyer@example.com",
		Name:   "Buyer",
	}))

	s.Equal([]string{"buyer@example.com"}, s.Sender.welcomes)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_RedeliveredThreeTimesSendsOnce() {
	s.registerRecipient(999, "buyer@example.com")

	event := s.orderCreated(42, 999)
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.NotificationService.HandleOrderCreated(s.Ctx, 2001, event))
	}

	s.Equal([]int64{42}, s.Sender.confirmations)

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 2001`,
	).Scan(&processedCount))
	s.Equal(int64(1), processedCount)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_UnknownRecipientConsumedWithoutSend() {
	// No user event has arrived for this buyer. The event is consumed so the
	// broker stops redelivering; a send would have nowhere to go.
	s.Require().NoError(s.NotificationService.HandleOrderCreated(s.Ctx, 2002, s.orderCreated(43, 555)))

	s.Empty(s.Sender.confirmations)

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 2002`,
	).Scan(&processedCount))
	s.Equal(int64(1), processedCount)
}

func (s *IntegrationTestSuite) TestHandlePaymentCompleted_ResolvesRecipientThroughOrder() {
	s.registerRecipient(999, "buyer@example.com")
	s.Require().NoError(s.NotificationService.HandleOrderCreated(s.Ctx, 2003, s.orderCreated(44, 999)))

	event := &domain.PaymentCompletedEvent{OrderID: 44, PaymentID: 7, Amount: 2700, PaidAt: time.Now()}
	s.Require().NoError(s.NotificationService.HandlePaymentCompleted(s.Ctx, 2004, event))
	s.Require().NoError(s.NotificationService.HandlePaymentCompleted(s.Ctx, 2004, event))

	s.Equal([]int64{44}, s.Sender.receipts)
}

func (s *IntegrationTestSuite) TestHandlePaymentFailed_SendsFailureNotice() {
	s.registerRecipient(999, "buyer@example.com")
	s.Require().NoError(s.NotificationService.HandleOrderCreated(s.Ctx, 2005, s.orderCreated(45, 999)))

	event := &domain.PaymentFailedEvent{OrderID: 45, PaymentID: 8, Amount: 2700, FailedAt: time.Now()}
	s.Require().NoError(s.NotificationService.HandlePaymentFailed(s.Ctx, 2006, event))

	s.Equal([]int64{45}, s.Sender.failures)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_SendFailureLeavesNoMarker() {
	s.registerRecipient(999, "buyer@example.com")

	s.Sender.sendErr = errors.New("smtp connection reset")
	s.Require().Error(s.NotificationService.HandleOrderCreated(s.Ctx, 2007, s.orderCreated(46, 999)))

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 2007`,
	).Scan(&processedCount))
	s.Equal(int64(0), processedCount)

	// The redelivery after the outage sends exactly once.
	s.Sender.sendErr = nil
	s.Require().NoError(s.NotificationService.HandleOrderCreated(s.Ctx, 2007, s.orderCreated(46, 999)))
	s.Equal([]int64{46}, s.Sender.confirmations)
}
