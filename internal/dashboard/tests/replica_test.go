package tests

import (
	"time"

	"github.com/rahul-codes-hash/microservices/internal/dashboard/domain"
)

func (s *IntegrationTestSuite) TestHandleOrderCreated_ProjectsReplicaRow() {
	placedAt := time.Now().UTC().Truncate(time.Second)

	err := s.DashboardService.HandleOrderCreated(s.Ctx, 7001, s.orderEvent(42, 2700, placedAt))
	s.Require().NoError(err)

	orders, total, err := s.DashboardService.ListOrders(s.Ctx, 10, 0)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(orders, 1)
	s.Equal(int64(42), orders[0].OrderID)
	s.Equal(int64(999), orders[0].UserID)
	s.Equal(int64(2700), orders[0].Total)
	s.Equal("INR", orders[0].Currency)
	s.Equal(int32(3), orders[0].ItemCount)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_DuplicateEventIsNoop() {
	placedAt := time.Now().UTC()

	s.Require().NoError(s.DashboardService.HandleOrderCreated(s.Ctx, 7002, s.orderEvent(42, 2700, placedAt)))
	s.Require().NoError(s.DashboardService.HandleOrderCreated(s.Ctx, 7002, s.orderEvent(42, 2700, placedAt)))

	_, total, err := s.DashboardService.ListOrders(s.Ctx, 10, 0)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 7002`,
	).Scan(&processedCount))
	s.Equal(int64(1), processedCount)
}

func (s *IntegrationTestSuite) TestHandleOrderCreated_BeforeUserAndProductEvents() {
	// Replication has no cross-stream ordering; an order may land first.
	s.Require().NoError(s.DashboardService.HandleOrderCreated(s.Ctx, 7003, s.orderEvent(42, 2700, time.Now())))

	s.Require().NoError(s.DashboardService.HandleUserCreated(s.Ctx, 7004, &domain.UserCreatedEvent{
		UserID: 999,
		Email:  "buyer@example.com",
		Name:   "Buyer",
	}))
	s.Require().NoError(s.DashboardService.HandleProductCreated(s.Ctx, 7005, &domain.ProductCreatedEvent{
		ProductID: 1,
		Name:      "Kuronami No Yaiba",
		Price:     5350,
		Currency:  "INR",
		Stock:     10,
		Category:  "books",
	}))

	summary, err := s.DashboardService.GetSummary(s.Ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), summary.Users)
	s.Equal(int64(1), summary.Products)
	s.Equal(int64(1), summary.Orders)
	s.Equal(int64(2700), summary.Revenue)
}

func (s *IntegrationTestSuite) TestSameEventIDFromDifferentTopics_BothApplied() {
	// Event ids are outbox sequence numbers, unique only per producer. The
	// catalog's row 1 and the order service's row 1 arrive with the same id
	// and must both land in the replica.
	s.Require().NoError(s.DashboardService.HandleProductCreated(s.Ctx, 1, &domain.ProductCreatedEvent{
		ProductID: 1,
		Name:      "Kuronami No Yaiba",
		Price:     5350,
		Currency:  "INR",
		Stock:     10,
		Category:  "books",
	}))
	s.Require().NoError(s.DashboardService.HandleOrderCreated(s.Ctx, 1, s.orderEvent(42, 2700, time.Now())))

	summary, err := s.DashboardService.GetSummary(s.Ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), summary.Products)
	s.Equal(int64(1), summary.Orders)
	s.Equal(int64(2700), summary.Revenue)

	var processedCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM processed_events WHERE event_id = 1`,
	).Scan(&processedCount))
	s.Equal(int64(2), processedCount)
}

func (s *IntegrationTestSuite) TestHandleUserCreated_UpsertKeepsLatest() {
	s.Require().NoError(s.DashboardService.HandleUserCreated(s.Ctx, 7006, &domain.UserCreatedEvent{
		UserID: 999,
		Email:  "old@example.com",
		Name:   "Buyer",
	}))
	s.Require().NoError(s.DashboardService.HandleUserCreated(s.Ctx, 7007, &domain.UserCreatedEvent{
		UserID: 999,
		Email:  "new@example.com",
		Name:   "Buyer",
	}))

	var email string
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT email FROM seller_users WHERE user_id = 999`,
	).Scan(&email))
	s.Equal("new@example.com", email)

	summary, err := s.DashboardService.GetSummary(s.Ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), summary.Users)
}

func (s *IntegrationTestSuite) TestListOrders_NewestFirstWithPagination() {
	base := time.Now().UTC().Add(-time.Hour)
	for i := int64(1); i <= 3; i++ {
		event := s.orderEvent(i, 1000*i, base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.DashboardService.HandleOrderCreated(s.Ctx, 7100+i, event))
	}

	orders, total, err := s.DashboardService.ListOrders(s.Ctx, 2, 0)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(orders, 2)
	s.Equal(int64(3), orders[0].OrderID)
	s.Equal(int64(2), orders[1].OrderID)

	orders, _, err = s.DashboardService.ListOrders(s.Ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal(int64(1), orders[0].OrderID)
}
