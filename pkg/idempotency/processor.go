package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result of applying an inbound event.
type Result int

const (
	Applied Result = iota
	Duplicate
	Rejected
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

const uniqueViolation = "23505"

// Apply runs action exactly once in effect for a given event. The dedup key
// is (source, event_id): event ids are outbox sequence numbers unique only
// within one producer, and source is the topic the event arrived on, which a
// single producer owns. The key is inserted into processed_events in the same
// transaction that gates the action: a redelivered event hits the primary key
// and is skipped, a crash before commit leaves no marker so the redelivery
// replays the action. Transient action failures are retried a few times
// before the event is rejected and left for broker redelivery; a Postgres
// error aborts the transaction, so those are never retried.
func Apply(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger *zap.Logger,
	source string,
	eventID int64,
	action func(tx pgx.Tx) error,
) (Result, error) {
	span := trace.SpanFromContext(ctx)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return Rejected, err
	}

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				shutdownCtx,
				logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	query := `
		INSERT INTO processed_events (source, event_id)
		VALUES ($1, $2)
	`

	_, err = tx.Exec(ctx, query, source, eventID)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == uniqueViolation {
			mylogger.Info(
				ctx,
				logger,
				"Event already processed, skipping",
				zap.String("source", source),
				zap.Int64("event_id", eventID),
			)

			return Duplicate, nil
		}

		span.RecordError(err)
		return Rejected, err
	}

	applied := false
	for i := 0; i < 3; i++ {
		err = action(tx)
		if err == nil {
			applied = true
			break
		}

		var pgError *pgconn.PgError
		if errors.As(err, &pgError) {
			break
		}

		if i < 2 {
			time.Sleep(500 * time.Millisecond)
		}
	}

	if !applied {
		mylogger.Error(
			ctx,
			logger,
			"Failed to apply event after retries",
			zap.String("source", source),
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)

		return Rejected, fmt.Errorf("failed to apply event %d: %w", eventID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		return Rejected, fmt.Errorf("failed to commit event %d: %w", eventID, err)
	}

	return Applied, nil
}
