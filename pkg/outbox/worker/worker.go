package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"github.com/rahul-codes-hash/microservices/pkg/outbox/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	SaveOutboxEvent(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error
	GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, batchSize int) ([]*domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, tx pgx.Tx, eventID int64) error
	MarkEventFailed(ctx context.Context, tx pgx.Tx, eventID int64, errMsg string) error
}

type KafkaProducer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

// OutboxProcessor polls the outbox table and relays pending entries to the
// broker. Publishing is at-least-once: a crash between SendMessage and
// MarkEventPublished republishes the entry on the next tick, so consumers
// deduplicate on event_id.
type OutboxProcessor struct {
	pool          *pgxpool.Pool
	repo          OutboxRepository
	kafkaProducer KafkaProducer
	logger        *zap.Logger
	batchSize     int
	interval      time.Duration
	tracer        trace.Tracer
}

func NewOutboxProcessor(
	pool *pgxpool.Pool,
	repo OutboxRepository,
	producer KafkaProducer,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		pool:          pool,
		repo:          repo,
		kafkaProducer: producer,
		logger:        logger,
		batchSize:     50,
		interval:      500 * time.Millisecond,
		tracer:        otel.Tracer("outbox-worker"),
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	mylogger.Info(ctx, p.logger, "Starting outbox processor")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, p.logger, "Outbox processor stopping")

			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					p.logger,
					"Error processing outbox batch",
					zap.Error(err),
				)
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "OutboxProcessor.processBatch")
	defer span.End()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				cleanupCtx,
				p.logger,
				"Outbox worker failed to rollback transaction",
				zap.Error(err),
			)
		}
	}()

	events, err := p.repo.GetUnpublishedEvents(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	mylogger.Debug(
		ctx,
		p.logger,
		"Processing outbox events",
		zap.Int("count", len(events)),
	)

	// Once an entry fails, later entries of the same aggregate are skipped
	// for this batch. That keeps publication FIFO per aggregate; entries of
	// other aggregates keep flowing.
	blockedAggregates := make(map[string]struct{})

	for _, event := range events {
		if _, blocked := blockedAggregates[event.AggregateID]; blocked {
			continue
		}

		message, err := p.envelope(event)
		if err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"Outbox worker failed to build envelope",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)

			if dbErr := p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error()); dbErr != nil {
				return dbErr
			}
			blockedAggregates[event.AggregateID] = struct{}{}
			continue
		}

		if err := p.kafkaProducer.ProduceMessage(ctx, event.Topic, message); err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"Outbox worker produce message failed",
				zap.Int64("id", event.Id),
				zap.Error(err),
			)

			if dbErr := p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error()); dbErr != nil {
				return dbErr
			}
			blockedAggregates[event.AggregateID] = struct{}{}
			continue
		}

		if dbErr := p.repo.MarkEventPublished(ctx, tx, event.Id); dbErr != nil {
			return dbErr
		}

		mylogger.Debug(
			ctx,
			p.logger,
			"Outbox event published",
			zap.Int64("id", event.Id),
			zap.String("topic", event.Topic),
		)
	}

	return tx.Commit(ctx)
}

// envelope enriches the stored payload with the fields consumers key on.
func (p *OutboxProcessor) envelope(event *domain.OutboxEvent) (map[string]any, error) {
	var payloadMap map[string]any
	if err := json.Unmarshal(event.Payload, &payloadMap); err != nil {
		return nil, err
	}

	payloadMap["event_id"] = event.Id
	payloadMap["aggregate_id"] = event.AggregateID
	payloadMap["occurred_at"] = event.CreatedAt

	return payloadMap, nil
}
