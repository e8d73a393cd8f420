package tests

import (
	"context"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
	"github.com/rahul-codes-hash/microservices/internal/catalog/service"
	pkgKafka "github.com/rahul-codes-hash/microservices/pkg/kafka"
	outboxRepository "github.com/rahul-codes-hash/microservices/pkg/outbox/repository"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
	"github.com/rahul-codes-hash/microservices/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	CatalogService service.CatalogService
	TestProducer   pkgKafka.Producer
	workerCancel   context.CancelFunc
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations/catalog")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("stock_reservations")
	s.BaseSuite.TruncateTable("products")
	s.BaseSuite.TruncateTable("outbox")
	s.BaseSuite.TruncateTable("processed_events")

	logger := zap.NewNop()
	productRepo := repository.NewProductRepository(s.DbPool, logger)
	reservationRepo := repository.NewReservationRepository(s.DbPool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	var err error
	s.TestProducer, err = pkgKafka.NewProducer(s.KafkaBrokers)
	s.Require().NoError(err, "failed to create kafka producer")

	s.CatalogService = service.NewCatalogService(productRepo, reservationRepo, outboxRepo, s.DbPool, logger)

	outboxProcessor := worker.NewOutboxProcessor(s.DbPool, outboxRepo, s.TestProducer, logger)

	workerCtx, cancel := context.WithCancel(s.Ctx)
	s.workerCancel = cancel

	go outboxProcessor.Start(workerCtx)
}

func (s *IntegrationTestSuite) TearDownTest() {
	if s.workerCancel != nil {
		s.workerCancel()
	}

	if s.TestProducer != nil {
		s.Require().NoError(s.TestProducer.Close())
	}
}

func (s *IntegrationTestSuite) createProduct(name string, price, stock int64) int64 {
	id, err := s.CatalogService.CreateProduct(s.Ctx, &domain.CreateProductInput{
		Name:     name,
		Price:    price,
		Currency: "INR",
		Stock:    stock,
		Category: "books",
	})
	s.Require().NoError(err)

	return id
}

func (s *IntegrationTestSuite) stockOf(productID int64) int64 {
	var stock int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT stock FROM products WHERE id = $1`,
		productID,
	).Scan(&stock))

	return stock
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
