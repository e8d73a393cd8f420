package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/order/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID, limit, offset int64) ([]domain.Order, int64, error)
	ChangeOrderStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.OrderStatus) error
	UpdateShippingAddress(ctx context.Context, orderID, userID int64, addr domain.Address) error
}

const uniqueViolation = "23505"

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", order.UserID),
		attribute.Int("line_count", len(order.Lines)),
	)

	queryOrder := `
		INSERT INTO orders (
			user_id, status, subtotal, tax, shipping_fee, total, currency,
			street, city, state, pincode, country, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, version, created_at, updated_at
	`

	addr := order.ShippingAddress
	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.UserID,
		string(order.Status),
		order.Subtotal,
		order.Tax,
		order.ShippingFee,
		order.Total,
		order.Currency,
		addr.Street,
		addr.City,
		addr.State,
		addr.Pincode,
		addr.Country,
		order.IdempotencyKey,
	).Scan(
		&order.ID,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == uniqueViolation {
			return ErrDuplicateIdempotencyKey
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Int64("user_id", order.UserID),
			zap.Error(err),
		)

		return err
	}

	queryLine := `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_price, currency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID

		if err := tx.QueryRow(
			ctx,
			queryLine,
			order.ID,
			line.ProductID,
			line.Quantity,
			line.UnitPrice.Amount,
			line.UnitPrice.Currency,
		).Scan(&line.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order line",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", line.ProductID),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		SELECT id, user_id, status, subtotal, tax, shipping_fee, total, currency,
			street, city, state, pincode, country, idempotency_key, version,
			created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Subtotal,
		&order.Tax,
		&order.ShippingFee,
		&order.Total,
		&order.Currency,
		&order.ShippingAddress.Street,
		&order.ShippingAddress.City,
		&order.ShippingAddress.State,
		&order.ShippingAddress.Pincode,
		&order.ShippingAddress.Country,
		&order.IdempotencyKey,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, err
	}

	lines, err := r.linesOf(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.FindByIdempotencyKey")
	defer span.End()

	query := `
		SELECT id
		FROM orders
		WHERE idempotency_key = $1
	`

	var orderID int64
	if err := r.pool.QueryRow(ctx, query, key).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, err
	}

	return r.GetByID(ctx, orderID)
}

func (r *orderRepo) ListByUser(ctx context.Context, userID, limit, offset int64) ([]domain.Order, int64, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListByUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, user_id, status, subtotal, tax, shipping_fee, total, currency,
			street, city, state, pincode, country, idempotency_key, version,
			created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.Subtotal,
			&order.Tax,
			&order.ShippingFee,
			&order.Total,
			&order.Currency,
			&order.ShippingAddress.Street,
			&order.ShippingAddress.City,
			&order.ShippingAddress.State,
			&order.ShippingAddress.Pincode,
			&order.ShippingAddress.Country,
			&order.IdempotencyKey,
			&order.Version,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, 0, err
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	return orders, total, nil
}

// ChangeOrderStatus performs the transition only when the order is currently
// in the expected status; the version bump makes concurrent writers lose.
func (r *orderRepo) ChangeOrderStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.OrderStatus) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ChangeOrderStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	query := `
		UPDATE orders
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	commandTag, err := tx.Exec(ctx, query, string(to), orderID, string(from))
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		existsQuery := `SELECT 1 FROM orders WHERE id = $1`

		var one int
		if err := tx.QueryRow(ctx, existsQuery, orderID).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}

			span.RecordError(err)
			return err
		}

		return ErrInvalidTransition
	}

	return nil
}

func (r *orderRepo) UpdateShippingAddress(ctx context.Context, orderID, userID int64, addr domain.Address) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.UpdateShippingAddress")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	// Address is only mutable while the order is still PENDING.
	query := `
		UPDATE orders
		SET street = $1, city = $2, state = $3, pincode = $4, country = $5,
			version = version + 1, updated_at = NOW()
		WHERE id = $6 AND user_id = $7 AND status = $8
	`

	commandTag, err := r.pool.Exec(
		ctx,
		query,
		addr.Street,
		addr.City,
		addr.State,
		addr.Pincode,
		addr.Country,
		orderID,
		userID,
		string(domain.OrderStatusPending),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if commandTag.RowsAffected() == 0 {
		existsQuery := `SELECT 1 FROM orders WHERE id = $1 AND user_id = $2`

		var one int
		if err := r.pool.QueryRow(ctx, existsQuery, orderID, userID).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}

			span.RecordError(err)
			return err
		}

		return ErrInvalidTransition
	}

	return nil
}

func (r *orderRepo) linesOf(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, currency
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice.Amount,
			&line.UnitPrice.Currency,
		); err != nil {
			return nil, err
		}

		lines = append(lines, line)
	}

	return lines, rows.Err()
}
