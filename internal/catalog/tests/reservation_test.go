package tests

import (
	"sync"
	"sync/atomic"

	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
)

func (s *IntegrationTestSuite) reserve(productID int64, quantity int32) (int64, error) {
	return s.CatalogService.Reserve(s.Ctx, &domain.ReserveInput{
		OrderRef:   "ref-test",
		ProductID:  productID,
		Quantity:   quantity,
		TTLSeconds: 120,
	})
}

func (s *IntegrationTestSuite) TestReserve_DecrementsStockAndRecordsHold() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 3)
	s.Require().NoError(err)
	s.Require().NotZero(reservationID)

	s.Equal(int64(7), s.stockOf(productID))

	var status string
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT status FROM stock_reservations WHERE id = $1`,
		reservationID,
	).Scan(&status))
	s.Equal("HELD", status)
}

func (s *IntegrationTestSuite) TestReserve_InsufficientStock() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 2)

	_, err := s.reserve(productID, 3)
	s.Require().ErrorIs(err, repository.ErrInsufficientStock)

	// The failed attempt must not leak a hold or touch stock.
	s.Equal(int64(2), s.stockOf(productID))

	var count int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT COUNT(*) FROM stock_reservations`,
	).Scan(&count))
	s.Equal(int64(0), count)
}

func (s *IntegrationTestSuite) TestReserve_UnknownProduct() {
	_, err := s.reserve(424242, 1)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)
}

func (s *IntegrationTestSuite) TestReserve_ConcurrentAttemptsNeverOversell() {
	const stock = 10
	const attempts = 25

	productID := s.createProduct("Limited Drop", 9999, stock)

	var succeeded atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := s.reserve(productID, 1); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(stock), succeeded.Load())
	s.Equal(int64(0), s.stockOf(productID))
}

func (s *IntegrationTestSuite) TestRelease_RestoresStock() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 4)
	s.Require().NoError(err)
	s.Equal(int64(6), s.stockOf(productID))

	s.Require().NoError(s.CatalogService.Release(s.Ctx, reservationID))
	s.Equal(int64(10), s.stockOf(productID))

	// Releasing again is a no-op, not a second restore.
	s.Require().NoError(s.CatalogService.Release(s.Ctx, reservationID))
	s.Equal(int64(10), s.stockOf(productID))
}

func (s *IntegrationTestSuite) TestCommit_MakesDeductionPermanent() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 4)
	s.Require().NoError(err)

	s.Require().NoError(s.CatalogService.Commit(s.Ctx, reservationID))
	s.Equal(int64(6), s.stockOf(productID))

	// A committed hold cannot be released back.
	err = s.CatalogService.Release(s.Ctx, reservationID)
	s.Require().ErrorIs(err, repository.ErrReservationClosed)
	s.Equal(int64(6), s.stockOf(productID))

	// Committing twice is safe.
	s.Require().NoError(s.CatalogService.Commit(s.Ctx, reservationID))
}

func (s *IntegrationTestSuite) TestCommitPlacedOrder_ConvertsLeftoverHolds() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 4)
	s.Require().NoError(err)

	// The placement crashed before its synchronous commit; the OrderCreated
	// event converts the hold so the reaper can never hand the stock back.
	event := &domain.OrderCreatedEvent{OrderID: 42, OrderRef: "ref-test"}
	s.Require().NoError(s.CatalogService.CommitPlacedOrder(s.Ctx, 9100, event))

	var status string
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT status FROM stock_reservations WHERE id = $1`,
		reservationID,
	).Scan(&status))
	s.Equal("COMMITTED", status)
	s.Equal(int64(6), s.stockOf(productID))

	// Redelivery is a no-op.
	s.Require().NoError(s.CatalogService.CommitPlacedOrder(s.Ctx, 9100, event))
	s.Equal(int64(6), s.stockOf(productID))

	// Even overdue, a committed hold is out of the reaper's reach.
	_, err = s.DbPool.Exec(
		s.Ctx,
		`UPDATE stock_reservations SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1`,
		reservationID,
	)
	s.Require().NoError(err)

	released, err := s.CatalogService.ReleaseExpired(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, released)
}

func (s *IntegrationTestSuite) TestCommitPlacedOrder_AfterSynchronousCommitIsNoop() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 4)
	s.Require().NoError(err)
	s.Require().NoError(s.CatalogService.Commit(s.Ctx, reservationID))

	event := &domain.OrderCreatedEvent{OrderID: 43, OrderRef: "ref-test"}
	s.Require().NoError(s.CatalogService.CommitPlacedOrder(s.Ctx, 9101, event))
	s.Equal(int64(6), s.stockOf(productID))
}

func (s *IntegrationTestSuite) TestReleaseExpired_ReturnsOverdueHolds() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	reservationID, err := s.reserve(productID, 5)
	s.Require().NoError(err)
	s.Equal(int64(5), s.stockOf(productID))

	_, err = s.DbPool.Exec(
		s.Ctx,
		`UPDATE stock_reservations SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1`,
		reservationID,
	)
	s.Require().NoError(err)

	released, err := s.CatalogService.ReleaseExpired(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, released)
	s.Equal(int64(10), s.stockOf(productID))

	// Nothing left to reap.
	released, err = s.CatalogService.ReleaseExpired(s.Ctx)
	s.Require().NoError(err)
	s.Equal(0, released)
}
