package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/dashboard/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ReplicaRepository interface {
	UpsertUser(ctx context.Context, tx pgx.Tx, user *domain.SellerUser) error
	UpsertProduct(ctx context.Context, tx pgx.Tx, product *domain.SellerProduct) error
	UpsertOrder(ctx context.Context, tx pgx.Tx, order *domain.SellerOrder) error
	ListOrders(ctx context.Context, limit, offset int64) ([]domain.SellerOrder, int64, error)
	GetSummary(ctx context.Context) (*domain.Summary, error)
}

type replicaRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewReplicaRepository(pool *pgxpool.Pool, logger *zap.Logger) ReplicaRepository {
	return &replicaRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/replica_repo"),
	}
}

func (r *replicaRepo) UpsertUser(ctx context.Context, tx pgx.Tx, user *domain.SellerUser) error {
	ctx, span := r.tracer.Start(ctx, "ReplicaRepository.UpsertUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", user.UserID),
	)

	query := `
		INSERT INTO seller_users (user_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW();
	`

	if _, err := tx.Exec(ctx, query, user.UserID, user.Email, user.Name); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error upserting seller user",
			zap.Int64("user_id", user.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("error upserting seller user %d: %w", user.UserID, err)
	}

	return nil
}

func (r *replicaRepo) UpsertProduct(ctx context.Context, tx pgx.Tx, product *domain.SellerProduct) error {
	ctx, span := r.tracer.Start(ctx, "ReplicaRepository.UpsertProduct")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", product.ProductID),
	)

	query := `
		INSERT INTO seller_products (product_id, name, price, currency, stock, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE
		SET name = EXCLUDED.name,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			updated_at = NOW();
	`

	if _, err := tx.Exec(
		ctx,
		query,
		product.ProductID,
		product.Name,
		product.Price,
		product.Currency,
		product.Stock,
		product.Category,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error upserting seller product",
			zap.Int64("product_id", product.ProductID),
			zap.Error(err),
		)

		return fmt.Errorf("error upserting seller product %d: %w", product.ProductID, err)
	}

	return nil
}

func (r *replicaRepo) UpsertOrder(ctx context.Context, tx pgx.Tx, order *domain.SellerOrder) error {
	ctx, span := r.tracer.Start(ctx, "ReplicaRepository.UpsertOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", order.OrderID),
	)

	query := `
		INSERT INTO seller_orders (order_id, user_id, total, currency, item_count, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
			total = EXCLUDED.total,
			currency = EXCLUDED.currency,
			item_count = EXCLUDED.item_count,
			placed_at = EXCLUDED.placed_at,
			updated_at = NOW();
	`

	if _, err := tx.Exec(
		ctx,
		query,
		order.OrderID,
		order.UserID,
		order.Total,
		order.Currency,
		order.ItemCount,
		order.PlacedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error upserting seller order",
			zap.Int64("order_id", order.OrderID),
			zap.Error(err),
		)

		return fmt.Errorf("error upserting seller order %d: %w", order.OrderID, err)
	}

	return nil
}

func (r *replicaRepo) ListOrders(ctx context.Context, limit, offset int64) ([]domain.SellerOrder, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ReplicaRepository.ListOrders")
	defer span.End()

	query := `
		SELECT order_id, user_id, total, currency, item_count, placed_at, updated_at
		FROM seller_orders
		ORDER BY placed_at DESC
		LIMIT $1 OFFSET $2;
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("error selecting seller orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.SellerOrder
	for rows.Next() {
		var o domain.SellerOrder
		if err := rows.Scan(
			&o.OrderID,
			&o.UserID,
			&o.Total,
			&o.Currency,
			&o.ItemCount,
			&o.PlacedAt,
			&o.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, 0, fmt.Errorf("error scanning seller order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seller_orders`).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count seller orders: %w", err)
	}

	return orders, total, nil
}

func (r *replicaRepo) GetSummary(ctx context.Context) (*domain.Summary, error) {
	ctx, span := r.tracer.Start(ctx, "ReplicaRepository.GetSummary")
	defer span.End()

	query := `
		SELECT
			(SELECT COUNT(*) FROM seller_users),
			(SELECT COUNT(*) FROM seller_products),
			(SELECT COUNT(*) FROM seller_orders),
			(SELECT COALESCE(SUM(total), 0) FROM seller_orders);
	`

	var summary domain.Summary
	if err := r.pool.QueryRow(ctx, query).
		Scan(&summary.Users, &summary.Products, &summary.Orders, &summary.Revenue); err != nil {
		span.RecordError(err)

		mylogger.Error(ctx, r.logger, "Error building summary", zap.Error(err))
		return nil, fmt.Errorf("error building summary: %w", err)
	}

	return &summary, nil
}
