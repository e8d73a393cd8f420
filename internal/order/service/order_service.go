package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/order/accessor"
	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/internal/order/repository"
	"github.com/rahul-codes-hash/microservices/pkg/idempotency"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxDomain "github.com/rahul-codes-hash/microservices/pkg/outbox/domain"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	orderTopic   = "order_events"
	paymentTopic = "payment_events"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, userID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID, page, limit int64) ([]domain.Order, int64, error)
	CancelOrder(ctx context.Context, orderID, userID int64) (*domain.Order, error)
	UpdateShippingAddress(ctx context.Context, orderID, userID int64, addr domain.Address) (*domain.Order, error)
	HandlePaymentCompleted(ctx context.Context, eventID int64, event *domain.PaymentCompletedEvent) error
	HandlePaymentFailed(ctx context.Context, eventID int64, event *domain.PaymentFailedEvent) error
}

type Deps struct {
	Pool            *pgxpool.Pool
	Logger          *zap.Logger
	OrderRepo       repository.OrderRepository
	OutboxRepo      worker.OutboxRepository
	CartAccessor    accessor.CartAccessor
	CatalogAccessor accessor.CatalogAccessor
	TaxRatePercent  int64
	ShippingFee     int64
	SagaDeadline    time.Duration
	ReservationTTL  time.Duration
}

type orderService struct {
	pool            *pgxpool.Pool
	logger          *zap.Logger
	orderRepo       repository.OrderRepository
	outboxRepo      worker.OutboxRepository
	cartAccessor    accessor.CartAccessor
	catalogAccessor accessor.CatalogAccessor
	taxRatePercent  int64
	shippingFee     int64
	sagaDeadline    time.Duration
	reservationTTL  time.Duration
	tracer          trace.Tracer
}

func NewOrderService(deps Deps) OrderService {
	return &orderService{
		pool:            deps.Pool,
		logger:          deps.Logger,
		orderRepo:       deps.OrderRepo,
		outboxRepo:      deps.OutboxRepo,
		cartAccessor:    deps.CartAccessor,
		catalogAccessor: deps.CatalogAccessor,
		taxRatePercent:  deps.TaxRatePercent,
		shippingFee:     deps.ShippingFee,
		sagaDeadline:    deps.SagaDeadline,
		reservationTTL:  deps.ReservationTTL,
		tracer:          otel.Tracer("order_service"),
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
	)

	if req.IdempotencyKey != nil {
		existing, err := s.orderRepo.FindByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err == nil {
			mylogger.Info(
				ctx,
				s.logger,
				"Returning order for repeated idempotency key",
				zap.Int64("order_id", existing.ID),
			)

			return existing, nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.sagaDeadline)
	defer cancel()

	saga := &placementSaga{
		svc:      s,
		req:      req,
		orderRef: uuid.NewString(),
	}

	order, err := saga.run(ctx)
	if err != nil {
		// Two sagas with the same key raced past the fast path; the loser's
		// reservations were already released by the abort.
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) && req.IdempotencyKey != nil {
			return s.orderRepo.FindByIdempotencyKey(ctx, *req.IdempotencyKey)
		}

		mylogger.Warn(
			ctx,
			s.logger,
			"Order placement failed",
			zap.Int64("user_id", req.UserID),
			zap.String("order_ref", saga.orderRef),
			zap.Error(err),
		)

		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("total", order.Total),
	)

	return order, nil
}

// persistOrder writes the order and its OrderCreated outbox entry in one
// transaction. The event can never be observed without the order being
// durable, and a durable order is never left without its event.
func (s *orderService) persistOrder(ctx context.Context, orderRef string, order *domain.Order) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				shutdownCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	event := &domain.OrderCreatedEvent{
		OrderID:    order.ID,
		OrderRef:   orderRef,
		UserID:     order.UserID,
		Items:      domain.LinePayloads(order.Lines),
		TotalPrice: order.TotalPrice(),
		CreatedAt:  order.CreatedAt,
	}

	if err := s.emitEvent(ctx, tx, order.ID, "OrderCreated", event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, domain.ErrNotOwner
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID, page, limit int64) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return s.orderRepo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

// CancelOrder is allowed only while the order is PENDING. The status change
// and the OrderCancelled outbox entry share one transaction; the catalog
// returns the stock when it consumes the event.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, domain.ErrNotOwner
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	err = s.orderRepo.ChangeOrderStatus(ctx, tx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, domain.ErrInvalidStateTransition
		}

		return nil, err
	}

	event := &domain.OrderCancelledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Items:   domain.LinePayloads(order.Lines),
	}

	if err := s.emitEvent(ctx, tx, order.ID, "OrderCancelled", event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Status = domain.OrderStatusCancelled

	return order, nil
}

func (s *orderService) UpdateShippingAddress(ctx context.Context, orderID, userID int64, addr domain.Address) (*domain.Order, error) {
	err := s.orderRepo.UpdateShippingAddress(ctx, orderID, userID, addr)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, domain.ErrInvalidStateTransition
		}

		return nil, err
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) HandlePaymentCompleted(ctx context.Context, eventID int64, event *domain.PaymentCompletedEvent) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandlePaymentCompleted")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", event.OrderID),
		attribute.Int64("event_id", eventID),
	)

	result, err := idempotency.Apply(ctx, s.pool, s.logger, paymentTopic, eventID, func(tx pgx.Tx) error {
		return s.applyStatusFromPayment(ctx, tx, event.OrderID, domain.OrderStatusConfirmed, nil)
	})
	if err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment completed event handled",
		zap.Int64("order_id", event.OrderID),
		zap.String("result", result.String()),
	)

	return nil
}

func (s *orderService) HandlePaymentFailed(ctx context.Context, eventID int64, event *domain.PaymentFailedEvent) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandlePaymentFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", event.OrderID),
		attribute.Int64("event_id", eventID),
	)

	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return err
	}

	cancelled := &domain.OrderCancelledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Items:   domain.LinePayloads(order.Lines),
	}

	result, err := idempotency.Apply(ctx, s.pool, s.logger, paymentTopic, eventID, func(tx pgx.Tx) error {
		return s.applyStatusFromPayment(ctx, tx, event.OrderID, domain.OrderStatusCancelled, cancelled)
	})
	if err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Payment failed event handled",
		zap.Int64("order_id", event.OrderID),
		zap.String("result", result.String()),
	)

	return nil
}

// applyStatusFromPayment transitions PENDING to the payment outcome. Orders
// already in the target status are treated as settled, not as errors, so
// racing sources of the same fact cannot wedge the consumer.
func (s *orderService) applyStatusFromPayment(ctx context.Context, tx pgx.Tx, orderID int64, to domain.OrderStatus, cancelled *domain.OrderCancelledEvent) error {
	err := s.orderRepo.ChangeOrderStatus(ctx, tx, orderID, domain.OrderStatusPending, to)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			current, getErr := s.orderRepo.GetByID(ctx, orderID)
			if getErr != nil {
				return getErr
			}

			if current.Status == to {
				return nil
			}

			mylogger.Warn(
				ctx,
				s.logger,
				"Payment outcome ignored for non-pending order",
				zap.Int64("order_id", orderID),
				zap.String("status", string(current.Status)),
				zap.String("target", string(to)),
			)

			return nil
		}

		return err
	}

	if cancelled != nil {
		return s.emitEvent(ctx, tx, orderID, "OrderCancelled", cancelled)
	}

	return nil
}

func (s *orderService) emitEvent(ctx context.Context, tx pgx.Tx, orderID int64, eventType string, payload any) error {
	outboxEvent, err := outboxDomain.NewOutboxEvent(
		orderTopic,
		"Order",
		fmt.Sprintf("%d", orderID),
		eventType,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}
