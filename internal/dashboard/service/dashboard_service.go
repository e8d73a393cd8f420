package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/domain"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/repository"
	"github.com/rahul-codes-hash/microservices/pkg/idempotency"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	userTopic    = "user_events"
	productTopic = "product_events"
	orderTopic   = "order_events"
)

// DashboardService projects upstream events into the seller replicas. An
// order may arrive before its product or user; it is stored as-is and the
// replicas converge once the missing events land.
type DashboardService struct {
	replicaRepo repository.ReplicaRepository
	pool        *pgxpool.Pool
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewDashboardService(
	replicaRepo repository.ReplicaRepository,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		replicaRepo: replicaRepo,
		pool:        pool,
		logger:      logger,
		tracer:      otel.Tracer("dashboard-service"),
	}
}

func (s *DashboardService) HandleUserCreated(ctx context.Context, eventID int64, event *domain.UserCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "DashboardService.HandleUserCreated")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	result, err := idempotency.Apply(ctx, s.pool, s.logger, userTopic, eventID, func(tx pgx.Tx) error {
		return s.replicaRepo.UpsertUser(ctx, tx, &domain.SellerUser{
			UserID: event.UserID,
			Email:  event.Email,
			Name:   event.Name,
		})
	})
	if err != nil {
		return err
	}

	s.logApplied(ctx, "user", event.UserID, result)
	return nil
}

func (s *DashboardService) HandleProductCreated(ctx context.Context, eventID int64, event *domain.ProductCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "DashboardService.HandleProductCreated")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	result, err := idempotency.Apply(ctx, s.pool, s.logger, productTopic, eventID, func(tx pgx.Tx) error {
		return s.replicaRepo.UpsertProduct(ctx, tx, &domain.SellerProduct{
			ProductID: event.ProductID,
			Name:      event.Name,
			Price:     event.Price,
			Currency:  event.Currency,
			Stock:     event.Stock,
			Category:  event.Category,
		})
	})
	if err != nil {
		return err
	}

	s.logApplied(ctx, "product", event.ProductID, result)
	return nil
}

func (s *DashboardService) HandleOrderCreated(ctx context.Context, eventID int64, event *domain.OrderCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "DashboardService.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("order_id", event.OrderID),
	)

	var itemCount int32
	for _, item := range event.Items {
		itemCount += item.Quantity
	}

	result, err := idempotency.Apply(ctx, s.pool, s.logger, orderTopic, eventID, func(tx pgx.Tx) error {
		return s.replicaRepo.UpsertOrder(ctx, tx, &domain.SellerOrder{
			OrderID:   event.OrderID,
			UserID:    event.UserID,
			Total:     event.TotalPrice.Amount,
			Currency:  event.TotalPrice.Currency,
			ItemCount: itemCount,
			PlacedAt:  event.CreatedAt,
		})
	})
	if err != nil {
		return err
	}

	s.logApplied(ctx, "order", event.OrderID, result)
	return nil
}

func (s *DashboardService) ListOrders(ctx context.Context, limit, offset int64) ([]domain.SellerOrder, int64, error) {
	return s.replicaRepo.ListOrders(ctx, limit, offset)
}

func (s *DashboardService) GetSummary(ctx context.Context) (*domain.Summary, error) {
	return s.replicaRepo.GetSummary(ctx)
}

func (s *DashboardService) logApplied(ctx context.Context, kind string, id int64, result idempotency.Result) {
	mylogger.Info(
		ctx,
		s.logger,
		"Replica event handled",
		zap.String("kind", kind),
		zap.Int64("id", id),
		zap.String("result", result.String()),
	)
}
