package tests

import (
	"fmt"
	"time"

	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
)

func (s *IntegrationTestSuite) TestCreateProduct_EmitsOutboxEvent() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	product, err := s.CatalogService.GetProduct(s.Ctx, productID)
	s.Require().NoError(err)
	s.Equal("Kuronami No Yaiba", product.Name)
	s.Equal(int64(5350), product.Price)
	s.Equal("INR", product.Currency)

	var outboxID int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		`SELECT id FROM outbox WHERE aggregate_id = $1 AND event_type = 'ProductCreated'`,
		fmt.Sprintf("%d", productID),
	).Scan(&outboxID))

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

func (s *IntegrationTestSuite) TestQuote_OmitsUnknownProducts() {
	known := s.createProduct("Kuronami No Yaiba", 5350, 10)

	quotes, err := s.CatalogService.Quote(s.Ctx, []int64{known, 424242})
	s.Require().NoError(err)
	s.Require().Len(quotes, 1)
	s.Equal(known, quotes[0].ProductID)
	s.Equal(int64(5350), quotes[0].Price.Amount)
	s.Equal("INR", quotes[0].Price.Currency)
	s.Equal(int64(10), quotes[0].Stock)
}

func (s *IntegrationTestSuite) TestDeleteProduct_HiddenFromQuotes() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 10)

	s.Require().NoError(s.CatalogService.DeleteProduct(s.Ctx, productID))

	_, err := s.CatalogService.GetProduct(s.Ctx, productID)
	s.Require().ErrorIs(err, repository.ErrProductNotFound)

	quotes, err := s.CatalogService.Quote(s.Ctx, []int64{productID})
	s.Require().NoError(err)
	s.Empty(quotes)
}

func (s *IntegrationTestSuite) TestRestockCancelledOrder_Idempotent() {
	productID := s.createProduct("Kuronami No Yaiba", 5350, 4)

	event := &domain.OrderCancelledEvent{
		OrderID: 77,
		UserID:  999,
		Items: []domain.CancelledOrderLine{
			{ProductID: productID, Quantity: 3},
		},
	}

	s.Require().NoError(s.CatalogService.RestockCancelledOrder(s.Ctx, 9001, event))
	s.Equal(int64(7), s.stockOf(productID))

	// Redelivery of the same event id must not restock twice.
	s.Require().NoError(s.CatalogService.RestockCancelledOrder(s.Ctx, 9001, event))
	s.Equal(int64(7), s.stockOf(productID))
}
