package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/internal/order/repository"
	"github.com/rahul-codes-hash/microservices/internal/order/service"
	pkgKafka "github.com/rahul-codes-hash/microservices/pkg/kafka"
	outboxRepository "github.com/rahul-codes-hash/microservices/pkg/outbox/repository"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
	"github.com/rahul-codes-hash/microservices/pkg/testsuite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// stubCartAccessor serves a fixed cart per user.
type stubCartAccessor struct {
	carts map[int64][]domain.CartItem
}

func (s *stubCartAccessor) FetchCart(_ context.Context, userID int64) (domain.CartSnapshot, error) {
	return domain.CartSnapshot{Items: s.carts[userID]}, nil
}

type hold struct {
	productID int64
	quantity  int32
}

// stubCatalogAccessor keeps stock in memory with real reservation semantics:
// conditional decrement on reserve, restore on release, permanent on commit.
type stubCatalogAccessor struct {
	mu     sync.Mutex
	stock  map[int64]int64
	prices map[int64]domain.Money

	nextReservationID int64
	holds             map[int64]hold
	committed         []int64
}

func newStubCatalog() *stubCatalogAccessor {
	return &stubCatalogAccessor{
		stock:  make(map[int64]int64),
		prices: make(map[int64]domain.Money),
		holds:  make(map[int64]hold),
	}
}

func (s *stubCatalogAccessor) addProduct(productID, priceAmount, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock[productID] = stock
	s.prices[productID] = domain.Money{Amount: priceAmount, Currency: "INR"}
}

func (s *stubCatalogAccessor) stockOf(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stock[productID]
}

func (s *stubCatalogAccessor) QuoteProducts(_ context.Context, productIDs []int64) (map[int64]domain.ProductQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make(map[int64]domain.ProductQuote)
	for _, id := range productIDs {
		price, ok := s.prices[id]
		if !ok {
			continue
		}

		quotes[id] = domain.ProductQuote{ProductID: id, Price: price, Stock: s.stock[id]}
	}

	return quotes, nil
}

func (s *stubCatalogAccessor) Reserve(_ context.Context, _ string, productID int64, quantity int32, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prices[productID]; !ok {
		return 0, &domain.ProductUnavailableError{ProductID: productID}
	}

	if s.stock[productID] < int64(quantity) {
		return 0, &domain.InsufficientStockError{ProductID: productID}
	}

	s.stock[productID] -= int64(quantity)
	s.nextReservationID++
	s.holds[s.nextReservationID] = hold{productID: productID, quantity: quantity}

	return s.nextReservationID, nil
}

func (s *stubCatalogAccessor) Release(_ context.Context, reservationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.holds[reservationID]; ok {
		s.stock[h.productID] += int64(h.quantity)
		delete(s.holds, reservationID)
	}

	return nil
}

func (s *stubCatalogAccessor) Commit(_ context.Context, reservationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.holds, reservationID)
	s.committed = append(s.committed, reservationID)

	return nil
}

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	OrderService service.OrderService
	Cart         *stubCartAccessor
	Catalog      *stubCatalogAccessor
	TestProducer pkgKafka.Producer
	workerCancel context.CancelFunc
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../../migrations/order")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("orders")
	s.BaseSuite.TruncateTable("order_lines")
	s.BaseSuite.TruncateTable("outbox")
	s.BaseSuite.TruncateTable("processed_events")

	logger := zap.NewNop()
	orderRepo := repository.NewOrderRepository(s.DbPool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	var err error
	s.TestProducer, err = pkgKafka.NewProducer(s.KafkaBrokers)
	s.Require().NoError(err, "failed to create kafka producer")

	s.Cart = &stubCartAccessor{carts: make(map[int64][]domain.CartItem)}
	s.Catalog = newStubCatalog()

	s.OrderService = service.NewOrderService(service.Deps{
		Pool:            s.DbPool,
		Logger:          logger,
		OrderRepo:       orderRepo,
		OutboxRepo:      outboxRepo,
		CartAccessor:    s.Cart,
		CatalogAccessor: s.Catalog,
		TaxRatePercent:  10,
		ShippingFee:     500,
		SagaDeadline:    10 * time.Second,
		ReservationTTL:  2 * time.Minute,
	})

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

func (s *IntegrationTestSuite) seedCart(userID int64, items ...domain.CartItem) {
	s.Cart.carts[userID] = items
}

func (s *IntegrationTestSuite) placeOrder(userID int64, key *string) *domain.Order {
	order, err := s.OrderService.PlaceOrder(s.Ctx, &domain.OrderRequest{
		UserID: userID,
		ShippingAddress: domain.Address{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
			Country: "IN",
		},
		IdempotencyKey: key,
	})
	s.Require().NoError(err)
	s.Require().NotNil(order)

	return order
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
