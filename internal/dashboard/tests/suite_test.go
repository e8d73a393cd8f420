package tests

import (
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/domain"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/repository"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/service"
	"github.com/rahul-codes-hash/microservices/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	DashboardService *service.DashboardService
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations/dashboard")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("seller_orders")
	s.BaseSuite.TruncateTable("seller_products")
	s.BaseSuite.TruncateTable("seller_users")
	s.BaseSuite.TruncateTable("processed_events")

	logger := zap.NewNop()
	replicaRepo := repository.NewReplicaRepository(s.DbPool, logger)

	s.DashboardService = service.NewDashboardService(replicaRepo, s.DbPool, logger)
}

func (s *IntegrationTestSuite) orderEvent(orderID int64, total int64, placedAt time.Time) *domain.OrderCreatedEvent {
	return &domain.OrderCreatedEvent{
		OrderID: orderID,
		UserID:  999,
		Items: []domain.OrderItemPayload{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		TotalPrice: domain.Money{Amount: total, Currency: "INR"},
		CreatedAt:  placedAt,
	}
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
