package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/repository"
	"github.com/rahul-codes-hash/microservices/pkg/idempotency"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxDomain "github.com/rahul-codes-hash/microservices/pkg/outbox/domain"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/worker"
	"go.uber.org/zap"
)

const (
	productTopic = "product_events"
	orderTopic   = "order_events"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, input *domain.CreateProductInput) (int64, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	UpdateProduct(ctx context.Context, id int64, input *domain.UpdateProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
	Quote(ctx context.Context, productIDs []int64) ([]domain.Quote, error)
	Reserve(ctx context.Context, input *domain.ReserveInput) (int64, error)
	Release(ctx context.Context, reservationID int64) error
	Commit(ctx context.Context, reservationID int64) error
	CommitPlacedOrder(ctx context.Context, eventID int64, event *domain.OrderCreatedEvent) error
	RestockCancelledOrder(ctx context.Context, eventID int64, event *domain.OrderCancelledEvent) error
	ReleaseExpired(ctx context.Context) (int, error)
}

type catalogService struct {
	productRepo     repository.ProductRepository
	reservationRepo repository.ReservationRepository
	outboxRepo      worker.OutboxRepository
	pool            *pgxpool.Pool
	logger          *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	reservationRepo repository.ReservationRepository,
	outboxRepo worker.OutboxRepository,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:     productRepo,
		reservationRepo: reservationRepo,
		outboxRepo:      outboxRepo,
		pool:            pool,
		logger:          logger,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, input *domain.CreateProductInput) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return 0, err
	}
	defer s.rollback(ctx, tx)

	product := &domain.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Currency:    input.Currency,
		Stock:       input.Stock,
		ImageUrl:    input.ImageUrl,
		Category:    input.Category,
	}

	id, err := s.productRepo.Create(ctx, tx, product)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Create error", zap.Error(err))
		return 0, fmt.Errorf("error creating product: %w", err)
	}

	outboxEvent, err := outboxDomain.NewOutboxEvent(
		productTopic,
		"Product",
		fmt.Sprintf("%d", id),
		"ProductCreated",
		domain.ProductCreatedEvent{
			ProductID: id,
			Name:      product.Name,
			Price:     product.Price,
			Currency:  product.Currency,
			Stock:     product.Stock,
			Category:  product.Category,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("event payload marshal error: %w", err)
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error saving outbox event",
			zap.Error(err),
		)

		return 0, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error commiting transaction",
			zap.Error(err),
		)

		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	res, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return nil, err
		}

		s.logger.Error("error getting product", zap.Error(err))
		return nil, fmt.Errorf("error getting product by id: %w", err)
	}

	return res, nil
}

func (s *catalogService) ListProducts(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	list, total, err := s.productRepo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("list error", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing products: %w", err)
	}

	return list, total, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	err := s.productRepo.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error updating product", zap.Error(err))
		return err
	}

	return nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.productRepo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error deleting product", zap.Error(err))
		return err
	}

	return nil
}

func (s *catalogService) Quote(ctx context.Context, productIDs []int64) ([]domain.Quote, error) {
	quotes, err := s.productRepo.GetQuotes(ctx, productIDs)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error quoting products", zap.Error(err))
		return nil, err
	}

	return quotes, nil
}

// Reserve decrements stock and records the hold in one transaction. Either
// both happen or neither does, so a hold row always accounts for stock that
// was actually taken.
func (s *catalogService) Reserve(ctx context.Context, input *domain.ReserveInput) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return 0, err
	}
	defer s.rollback(ctx, tx)

	if err := s.productRepo.DecreaseStock(ctx, tx, input.ProductID, input.Quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			mylogger.Warn(
				ctx,
				s.logger,
				"Insufficient stock for reservation",
				zap.Int64("product_id", input.ProductID),
				zap.Int32("quantity", input.Quantity),
			)
		}

		return 0, err
	}

	reservation := &domain.Reservation{
		OrderRef:  input.OrderRef,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Status:    domain.ReservationStatusHeld,
		ExpiresAt: time.Now().Add(time.Duration(input.TTLSeconds) * time.Second),
	}

	id, err := s.reservationRepo.Create(ctx, tx, reservation)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reservation: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Stock reserved",
		zap.Int64("reservation_id", id),
		zap.String("order_ref", input.OrderRef),
		zap.Int64("product_id", input.ProductID),
	)

	return id, nil
}

// Release returns a held quantity to stock. Releasing an already released
// reservation is a no-op so clients can retry safely.
func (s *catalogService) Release(ctx context.Context, reservationID int64) error {
	return s.closeReservation(ctx, reservationID, domain.ReservationStatusReleased, true)
}

// Commit makes the hold's stock subtraction permanent. Committing twice is a
// no-op.
func (s *catalogService) Commit(ctx context.Context, reservationID int64) error {
	return s.closeReservation(ctx, reservationID, domain.ReservationStatusCommitted, false)
}

func (s *catalogService) closeReservation(
	ctx context.Context,
	reservationID int64,
	to domain.ReservationStatus,
	restock bool,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return err
	}
	defer s.rollback(ctx, tx)

	reservation, err := s.reservationRepo.Close(ctx, tx, reservationID, to)
	if err != nil {
		if errors.Is(err, repository.ErrReservationClosed) {
			existing, getErr := s.reservationRepo.GetByID(ctx, tx, reservationID)
			if getErr != nil {
				return getErr
			}

			if existing.Status == to {
				mylogger.Info(
					ctx,
					s.logger,
					"Reservation already closed, skipping",
					zap.Int64("reservation_id", reservationID),
					zap.String("status", string(to)),
				)

				return nil
			}
		}

		return err
	}

	if restock {
		if err := s.productRepo.IncreaseStock(ctx, tx, reservation.ProductID, reservation.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Reservation closed",
		zap.Int64("reservation_id", reservationID),
		zap.String("status", string(to)),
	)

	return nil
}

// CommitPlacedOrder handles OrderCreated from the order topic. The order
// service commits its holds synchronously right after persisting; this path
// converts whatever that call did not reach, so a crash between persist and
// commit cannot leave a hold for the reaper to release while the persisted
// order still claims the stock. Holds already committed are simply absent
// from the HELD listing.
func (s *catalogService) CommitPlacedOrder(ctx context.Context, eventID int64, event *domain.OrderCreatedEvent) error {
	result, err := idempotency.Apply(ctx, s.pool, s.logger, orderTopic, eventID, func(tx pgx.Tx) error {
		held, err := s.reservationRepo.ListHeldByOrderRef(ctx, tx, event.OrderRef)
		if err != nil {
			return err
		}

		for _, reservation := range held {
			if _, err := s.reservationRepo.Close(ctx, tx, reservation.ID, domain.ReservationStatusCommitted); err != nil {
				return err
			}

			mylogger.Warn(
				ctx,
				s.logger,
				"Converted hold the placement did not commit",
				zap.Int64("reservation_id", reservation.ID),
				zap.String("order_ref", reservation.OrderRef),
			)
		}

		return nil
	})
	if err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order placement commit handled",
		zap.Int64("order_id", event.OrderID),
		zap.String("result", result.String()),
	)

	return nil
}

// RestockCancelledOrder handles OrderCancelled from the order topic. The
// cancelled quantities were committed at placement, so they go back to stock
// exactly once per event id.
func (s *catalogService) RestockCancelledOrder(ctx context.Context, eventID int64, event *domain.OrderCancelledEvent) error {
	result, err := idempotency.Apply(ctx, s.pool, s.logger, orderTopic, eventID, func(tx pgx.Tx) error {
		for _, item := range event.Items {
			if err := s.productRepo.IncreaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order cancellation restock handled",
		zap.Int64("order_id", event.OrderID),
		zap.String("result", result.String()),
	)

	return nil
}

// ReleaseExpired returns the stock of overdue holds. Called by the reaper on
// an interval; each run handles at most one batch.
func (s *catalogService) ReleaseExpired(ctx context.Context) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer s.rollback(ctx, tx)

	expired, err := s.reservationRepo.ListExpired(ctx, tx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	for _, reservation := range expired {
		if _, err := s.reservationRepo.Close(ctx, tx, reservation.ID, domain.ReservationStatusReleased); err != nil {
			return 0, err
		}

		if err := s.productRepo.IncreaseStock(ctx, tx, reservation.ProductID, reservation.Quantity); err != nil {
			return 0, err
		}

		mylogger.Warn(
			ctx,
			s.logger,
			"Expired reservation released",
			zap.Int64("reservation_id", reservation.ID),
			zap.String("order_ref", reservation.OrderRef),
			zap.Int64("product_id", reservation.ProductID),
		)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reaper batch: %w", err)
	}

	return len(expired), nil
}

func (s *catalogService) rollback(ctx context.Context, tx pgx.Tx) {
	cleanupCtx := context.WithoutCancel(ctx)

	err := tx.Rollback(cleanupCtx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		mylogger.Warn(
			cleanupCtx,
			s.logger,
			"Error rolling back transaction",
			zap.Error(err),
		)
	}
}
