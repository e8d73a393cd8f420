package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContactRepository is the notification-local directory of who to write to.
// It is fed from the user and order topics, never queried cross-service.
type ContactRepository interface {
	UpsertRecipient(ctx context.Context, tx pgx.Tx, userID int64, email, name string) error
	RecordOrderContact(ctx context.Context, tx pgx.Tx, orderID, userID int64) error
	GetRecipientEmail(ctx context.Context, tx pgx.Tx, userID int64) (string, error)
	GetOrderRecipientEmail(ctx context.Context, tx pgx.Tx, orderID int64) (string, error)
}

type contactRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewContactRepository(pool *pgxpool.Pool, logger *zap.Logger) ContactRepository {
	return &contactRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/contact_repo"),
	}
}

func (r *contactRepo) UpsertRecipient(ctx context.Context, tx pgx.Tx, userID int64, email, name string) error {
	ctx, span := r.tracer.Start(ctx, "ContactRepository.UpsertRecipient")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		INSERT INTO recipients (user_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW();
	`

	if _, err := tx.Exec(ctx, query, userID, email, name); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error upserting recipient",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return fmt.Errorf("error upserting recipient %d: %w", userID, err)
	}

	return nil
}

func (r *contactRepo) RecordOrderContact(ctx context.Context, tx pgx.Tx, orderID, userID int64) error {
	ctx, span := r.tracer.Start(ctx, "ContactRepository.RecordOrderContact")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.Int64("user_id", userID),
	)

	query := `
		INSERT INTO order_contacts (order_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (order_id) DO NOTHING;
	`

	if _, err := tx.Exec(ctx, query, orderID, userID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error recording order contact",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)

		return fmt.Errorf("error recording order contact %d: %w", orderID, err)
	}

	return nil
}

func (r *contactRepo) GetRecipientEmail(ctx context.Context, tx pgx.Tx, userID int64) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ContactRepository.GetRecipientEmail")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT email FROM recipients WHERE user_id = $1;
	`

	var email string
	if err := tx.QueryRow(ctx, query, userID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRecipientNotFound
		}

		span.RecordError(err)
		return "", fmt.Errorf("error getting recipient %d: %w", userID, err)
	}

	return email, nil
}

func (r *contactRepo) GetOrderRecipientEmail(ctx context.Context, tx pgx.Tx, orderID int64) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ContactRepository.GetOrderRecipientEmail")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		SELECT r.email
		FROM order_contacts oc
		JOIN recipients r ON r.user_id = oc.user_id
		WHERE oc.order_id = $1;
	`

	var email string
	if err := tx.QueryRow(ctx, query, orderID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRecipientNotFound
		}

		span.RecordError(err)
		return "", fmt.Errorf("error getting order recipient %d: %w", orderID, err)
	}

	return email, nil
}
