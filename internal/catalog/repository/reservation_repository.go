package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, reservation *domain.Reservation) (int64, error)
	GetByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.Reservation, error)
	Close(ctx context.Context, tx pgx.Tx, id int64, to domain.ReservationStatus) (*domain.Reservation, error)
	ListExpired(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.Reservation, error)
	ListHeldByOrderRef(ctx context.Context, tx pgx.Tx, orderRef string) ([]domain.Reservation, error)
}

type reservationRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewReservationRepository(pool *pgxpool.Pool, logger *zap.Logger) ReservationRepository {
	return &reservationRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/reservation_repo"),
	}
}

func (r *reservationRepo) Create(ctx context.Context, tx pgx.Tx, reservation *domain.Reservation) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_ref", reservation.OrderRef),
		attribute.Int64("product_id", reservation.ProductID),
	)

	query := `
		INSERT INTO stock_reservations (order_ref, product_id, quantity, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	err := tx.QueryRow(
		ctx,
		query,
		reservation.OrderRef,
		reservation.ProductID,
		reservation.Quantity,
		reservation.Status,
		reservation.ExpiresAt,
	).Scan(&reservation.ID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error creating reservation",
			zap.Error(err),
		)

		return 0, fmt.Errorf("error creating reservation: %w", err)
	}

	return reservation.ID, nil
}

func (r *reservationRepo) GetByID(ctx context.Context, tx pgx.Tx, id int64) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		SELECT id, order_ref, product_id, quantity, status, expires_at, created_at
		FROM stock_reservations
		WHERE id = $1;
	`

	var res domain.Reservation
	if err := tx.QueryRow(ctx, query, id).
		Scan(&res.ID, &res.OrderRef, &res.ProductID, &res.Quantity,
			&res.Status, &res.ExpiresAt, &res.CreatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("error getting reservation: %w", err)
	}

	return &res, nil
}

// Close moves a HELD reservation to its terminal status and returns the row
// as it was before the move. A reservation already out of HELD returns
// ErrReservationClosed so the caller can decide whether the terminal status
// matches.
func (r *reservationRepo) Close(ctx context.Context, tx pgx.Tx, id int64, to domain.ReservationStatus) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Close")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.String("to", string(to)),
	)

	query := `
		UPDATE stock_reservations
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING order_ref, product_id, quantity, expires_at, created_at;
	`

	res := domain.Reservation{ID: id, Status: to}
	err := tx.QueryRow(ctx, query, id, to, domain.ReservationStatusHeld).
		Scan(&res.OrderRef, &res.ProductID, &res.Quantity, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, tx, id); getErr != nil {
				return nil, getErr
			}

			return nil, ErrReservationClosed
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error closing reservation",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error closing reservation %d: %w", id, err)
	}

	return &res, nil
}

// ListHeldByOrderRef locks the open holds of one placement so they can be
// converted or released as a unit.
func (r *reservationRepo) ListHeldByOrderRef(ctx context.Context, tx pgx.Tx, orderRef string) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.ListHeldByOrderRef")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_ref", orderRef),
	)

	query := `
		SELECT id, order_ref, product_id, quantity, status, expires_at, created_at
		FROM stock_reservations
		WHERE status = $1 AND order_ref = $2
		ORDER BY id ASC
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, domain.ReservationStatusHeld, orderRef)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error selecting reservations for %s: %w", orderRef, err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.OrderRef,
			&res.ProductID,
			&res.Quantity,
			&res.Status,
			&res.ExpiresAt,
			&res.CreatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return reservations, nil
}

// ListExpired locks a batch of overdue HELD reservations. SKIP LOCKED keeps
// concurrent reaper runs from blocking on each other's batch.
func (r *reservationRepo) ListExpired(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.ListExpired")
	defer span.End()

	query := `
		SELECT id, order_ref, product_id, quantity, status, expires_at, created_at
		FROM stock_reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED;
	`

	rows, err := tx.Query(ctx, query, domain.ReservationStatusHeld, now, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error selecting expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.OrderRef,
			&res.ProductID,
			&res.Quantity,
			&res.Status,
			&res.ExpiresAt,
			&res.CreatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return reservations, nil
}
