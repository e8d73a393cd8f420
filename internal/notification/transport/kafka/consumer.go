package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rahul-codes-hash/microservices/internal/notification/domain"
	"github.com/rahul-codes-hash/microservices/internal/notification/service"
	"github.com/rahul-codes-hash/microservices/pkg/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxDomain "github.com/rahul-codes-hash/microservices/pkg/outbox/domain"
	"go.uber.org/zap"
)

type Consumer struct {
	service *service.NotificationService
	logger  *zap.Logger
}

func NewConsumer(service *service.NotificationService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notification-service-group",
		[]string{"user_events", "order_events", "payment_events"},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	var envelope outboxDomain.Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling envelope", zap.Error(err))
		return err
	}

	switch envelope.Event {
	case "UserCreated":
		var event domain.UserCreatedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		return c.service.HandleUserCreated(ctx, envelope.EventID, &event)
	case "OrderCreated":
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		return c.service.HandleOrderCreated(ctx, envelope.EventID, &event)
	case "PaymentCompleted":
		var event domain.PaymentCompletedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		return c.service.HandlePaymentCompleted(ctx, envelope.EventID, &event)
	case "PaymentFailed":
		var event domain.PaymentFailedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		return c.service.HandlePaymentFailed(ctx, envelope.EventID, &event)
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", envelope.Event))
	}

	return nil
}
