package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
)

// cachedCatalogService caches single-product reads. Quotes and reservations
// always hit postgres because they answer with live stock.
type cachedCatalogService struct {
	next        CatalogService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCatalogService(next CatalogService, redisClient *redis.Client) CatalogService {
	return &cachedCatalogService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *cachedCatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := productKey(id)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return product, nil
}

func (s *cachedCatalogService) CreateProduct(ctx context.Context, input *domain.CreateProductInput) (int64, error) {
	return s.next.CreateProduct(ctx, input)
}

func (s *cachedCatalogService) ListProducts(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.next.ListProducts(ctx, limit, offset, search)
}

func (s *cachedCatalogService) UpdateProduct(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	if err := s.next.UpdateProduct(ctx, id, input); err != nil {
		return err
	}

	s.redisClient.Del(ctx, productKey(id))
	return nil
}

func (s *cachedCatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.next.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.redisClient.Del(ctx, productKey(id))
	return nil
}

func (s *cachedCatalogService) Quote(ctx context.Context, productIDs []int64) ([]domain.Quote, error) {
	return s.next.Quote(ctx, productIDs)
}

func (s *cachedCatalogService) Reserve(ctx context.Context, input *domain.ReserveInput) (int64, error) {
	id, err := s.next.Reserve(ctx, input)
	if err != nil {
		return 0, err
	}

	s.redisClient.Del(ctx, productKey(input.ProductID))
	return id, nil
}

func (s *cachedCatalogService) Release(ctx context.Context, reservationID int64) error {
	return s.next.Release(ctx, reservationID)
}

func (s *cachedCatalogService) Commit(ctx context.Context, reservationID int64) error {
	return s.next.Commit(ctx, reservationID)
}

func (s *cachedCatalogService) CommitPlacedOrder(ctx context.Context, eventID int64, event *domain.OrderCreatedEvent) error {
	return s.next.CommitPlacedOrder(ctx, eventID, event)
}

func (s *cachedCatalogService) RestockCancelledOrder(ctx context.Context, eventID int64, event *domain.OrderCancelledEvent) error {
	if err := s.next.RestockCancelledOrder(ctx, eventID, event); err != nil {
		return err
	}

	for _, item := range event.Items {
		s.redisClient.Del(ctx, productKey(item.ProductID))
	}

	return nil
}

func (s *cachedCatalogService) ReleaseExpired(ctx context.Context) (int, error) {
	return s.next.ReleaseExpired(ctx)
}
