package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rahul-codes-hash/microservices/internal/notification/domain"
	"github.com/rahul-codes-hash/microservices/internal/notification/infrastructure/email"
	"github.com/rahul-codes-hash/microservices/internal/notification/repository"
	"github.com/rahul-codes-hash/microservices/pkg/idempotency"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	userTopic    = "user_events"
	orderTopic   = "order_events"
	paymentTopic = "payment_events"
)

// NotificationService turns broker events into emails. Sends happen inside
// the dedup transaction: a redelivered event id never emails twice, and an
// email failure leaves no marker so the broker retries the whole event.
type NotificationService struct {
	emailSender email.Sender
	contactRepo repository.ContactRepository
	logger      *zap.Logger
	pool        *pgxpool.Pool
	tracer      trace.Tracer
}

func NewNotificationService(
	emailSender email.Sender,
	contactRepo repository.ContactRepository,
	logger *zap.Logger,
	pool *pgxpool.Pool,
) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		contactRepo: contactRepo,
		logger:      logger,
		pool:        pool,
		tracer:      otel.Tracer("notification-service"),
	}
}

func (s *NotificationService) HandleUserCreated(ctx context.Context, eventID int64, event *domain.UserCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleUserCreated")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	_, err := idempotency.Apply(ctx, s.pool, s.logger, userTopic, eventID, func(tx pgx.Tx) error {
		if err := s.contactRepo.UpsertRecipient(ctx, tx, event.UserID, event.Email, event.Name); err != nil {
			return err
		}

		return s.emailSender.SendWelcomeEmail(ctx, event.Email, event.Name)
	})

	return err
}

func (s *NotificationService) HandleOrderCreated(ctx context.Context, eventID int64, event *domain.OrderCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("order_id", event.OrderID),
	)

	_, err := idempotency.Apply(ctx, s.pool, s.logger, orderTopic, eventID, func(tx pgx.Tx) error {
		if err := s.contactRepo.RecordOrderContact(ctx, tx, event.OrderID, event.UserID); err != nil {
			return err
		}

		to, err := s.contactRepo.GetRecipientEmail(ctx, tx, event.UserID)
		if err != nil {
			return s.skipUnknownRecipient(ctx, err, event.OrderID)
		}

		return s.emailSender.SendOrderConfirmation(
			ctx,
			to,
			event.OrderID,
			event.TotalPrice.Amount,
			event.TotalPrice.Currency,
		)
	})

	return err
}

func (s *NotificationService) HandlePaymentCompleted(ctx context.Context, eventID int64, event *domain.PaymentCompletedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandlePaymentCompleted")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("order_id", event.OrderID),
	)

	_, err := idempotency.Apply(ctx, s.pool, s.logger, paymentTopic, eventID, func(tx pgx.Tx) error {
		to, err := s.contactRepo.GetOrderRecipientEmail(ctx, tx, event.OrderID)
		if err != nil {
			return s.skipUnknownRecipient(ctx, err, event.OrderID)
		}

		return s.emailSender.SendPaymentReceipt(ctx, to, event.OrderID, event.Amount)
	})

	return err
}

func (s *NotificationService) HandlePaymentFailed(ctx context.Context, eventID int64, event *domain.PaymentFailedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandlePaymentFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("order_id", event.OrderID),
	)

	_, err := idempotency.Apply(ctx, s.pool, s.logger, paymentTopic, eventID, func(tx pgx.Tx) error {
		to, err := s.contactRepo.GetOrderRecipientEmail(ctx, tx, event.OrderID)
		if err != nil {
			return s.skipUnknownRecipient(ctx, err, event.OrderID)
		}

		return s.emailSender.SendPaymentFailure(ctx, to, event.OrderID)
	})

	return err
}

// An event for a user the directory has never seen is consumed without an
// email. Failing it instead would redeliver forever.
func (s *NotificationService) skipUnknownRecipient(ctx context.Context, err error, orderID int64) error {
	if errors.Is(err, repository.ErrRecipientNotFound) {
		mylogger.Warn(
			ctx,
			s.logger,
			"No recipient on file, skipping email",
			zap.Int64("order_id", orderID),
		)

		return nil
	}

	return err
}
