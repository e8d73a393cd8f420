package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	Create(ctx context.Context, tx pgx.Tx, product *domain.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetQuotes(ctx context.Context, ids []int64) ([]domain.Quote, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error
	DeleteByID(ctx context.Context, id int64) error
	DecreaseStock(ctx context.Context, tx pgx.Tx, id int64, quantity int32) error
	IncreaseStock(ctx context.Context, tx pgx.Tx, id int64, quantity int32) error
}

type productRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/product_repo"),
	}
}

func (r *productRepo) Create(ctx context.Context, tx pgx.Tx, product *domain.Product) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", product.Name),
	)

	query := `
		INSERT INTO products (name, description, price, currency, stock, image_url, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`

	err := tx.QueryRow(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Currency,
		product.Stock,
		product.ImageUrl,
		product.Category,
	).Scan(&product.ID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error creating product",
			zap.Error(err),
		)

		return 0, fmt.Errorf("error creating product: %w", err)
	}

	return product.ID, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		SELECT id, name, description, price, currency, stock,
		image_url, category, created_at, updated_at
		FROM products
		WHERE id = $1 AND deleted_at IS NULL;
	`

	var res domain.Product
	if err := r.pool.QueryRow(ctx, query, id).
		Scan(&res.ID, &res.Name, &res.Description, &res.Price, &res.Currency,
			&res.Stock, &res.ImageUrl, &res.Category,
			&res.CreatedAt, &res.UpdatedAt,
		); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error get by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return &res, nil
}

// GetQuotes returns one row per product that exists; absent ids are simply
// missing from the result.
func (r *productRepo) GetQuotes(ctx context.Context, ids []int64) ([]domain.Quote, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetQuotes")
	defer span.End()

	span.SetAttributes(
		attribute.Int("product_count", len(ids)),
	)

	query := `
		SELECT id, price, currency, stock
		FROM products
		WHERE id = ANY($1) AND deleted_at IS NULL;
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error selecting quotes",
			zap.Error(err),
		)

		return nil, fmt.Errorf("error selecting quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0, len(ids))
	for rows.Next() {
		var q domain.Quote
		if err := rows.Scan(&q.ProductID, &q.Price.Amount, &q.Price.Currency, &q.Stock); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return quotes, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.Int64("offset", offset),
		attribute.String("search", search),
	)

	var products []domain.Product
	var totalCount int64

	baseQuery := `SELECT id, name, description, price, currency, stock,
		image_url, category, created_at, updated_at
		FROM products
		WHERE deleted_at IS NULL`
	countQuery := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`

	var args []interface{}
	argId := 1

	if search != "" {
		filter := fmt.Sprintf(" AND name ILIKE $%d", argId)
		baseQuery += filter
		countQuery += filter

		args = append(args, "%"+search+"%")
		argId++
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argId, argId+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, baseQuery, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error getting products",
			zap.String("search", search),
			zap.Int64("limit", limit),
			zap.Int64("offset", offset),
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("error selecting products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Currency,
			&p.Stock,
			&p.ImageUrl,
			&p.Category,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to scan rows",
				zap.Error(err),
			)

			return nil, 0, fmt.Errorf("error scanning rows: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Rows iteration error",
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	var countArgs []interface{}
	if search != "" {
		countArgs = append(countArgs, args[0])
	}

	err = r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to count products",
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, totalCount, nil
}

func (r *productRepo) Update(ctx context.Context, id int64, input *domain.UpdateProductInput) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `UPDATE products SET `
	var args []interface{}
	argId := 1

	var updates []string

	if input.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argId))
		args = append(args, *input.Name)
		argId++
	}

	if input.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argId))
		args = append(args, *input.Description)
		argId++
	}

	if input.Price != nil {
		updates = append(updates, fmt.Sprintf("price = $%d", argId))
		args = append(args, *input.Price)
		argId++
	}

	if input.Stock != nil {
		updates = append(updates, fmt.Sprintf("stock = $%d", argId))
		args = append(args, *input.Stock)
		argId++
	}

	if input.ImageUrl != nil {
		updates = append(updates, fmt.Sprintf("image_url = $%d", argId))
		args = append(args, *input.ImageUrl)
		argId++
	}

	if input.Category != nil {
		updates = append(updates, fmt.Sprintf("category = $%d", argId))
		args = append(args, *input.Category)
		argId++
	}

	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = NOW()")

	query += strings.Join(updates, ", ")
	query += fmt.Sprintf(" WHERE id = $%d AND deleted_at IS NULL", argId)
	args = append(args, id)

	commandTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update product",
			zap.Int64("id", id),
		)

		return fmt.Errorf("error updating product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		UPDATE products
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	commandTag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error deleting product by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error deleting product by id: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DecreaseStock subtracts quantity only when enough stock remains. The
// predicate in the UPDATE is the single oversell guard; callers never check
// stock separately before calling this.
func (r *productRepo) DecreaseStock(ctx context.Context, tx pgx.Tx, id int64, quantity int32) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DecreaseStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.Int("quantity", int(quantity)),
	)

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
			AND stock >= $2
			AND deleted_at IS NULL;
	`

	commandTag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error decreasing stock",
			zap.Int64("id", id),
			zap.Int32("quantity", quantity),
			zap.Error(err),
		)

		return fmt.Errorf("error decreasing stock for product %d: %w", id, err)
	}

	if commandTag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)`,
			id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("error checking product %d: %w", id, err)
		}

		if !exists {
			return ErrProductNotFound
		}

		return ErrInsufficientStock
	}

	return nil
}

func (r *productRepo) IncreaseStock(ctx context.Context, tx pgx.Tx, id int64, quantity int32) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.IncreaseStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.Int("quantity", int(quantity)),
	)

	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`

	commandTag, err := tx.Exec(ctx, query, quantity, id)
	if err != nil {
		span.RecordError(err)
		mylogger.Warn(ctx, r.logger, "Failed to increase stock", zap.Error(err))

		return err
	}

	if commandTag.RowsAffected() == 0 {
		mylogger.Warn(ctx, r.logger, "Product not found", zap.Int64("product_id", id))
		return ErrProductNotFound
	}

	return nil
}
