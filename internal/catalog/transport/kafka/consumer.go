package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/rahul-codes-hash/microservices/internal/catalog/domain"
	"github.com/rahul-codes-hash/microservices/internal/catalog/service"
	"github.com/rahul-codes-hash/microservices/pkg/kafka"
	"github.com/rahul-codes-hash/microservices/pkg/mylogger"
	outboxDomain "github.com/rahul-codes-hash/microservices/pkg/outbox/domain"
	"go.uber.org/zap"
)

type Consumer struct {
	service service.CatalogService
	logger  *zap.Logger
}

func NewConsumer(service service.CatalogService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"catalog-service-group",
		[]string{"order_events"},
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
	case "OrderCreated":
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		if err := c.service.CommitPlacedOrder(ctx, envelope.EventID, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to commit placed order holds", zap.Error(err))
			return err
		}
	case "OrderCancelled":
		var event domain.OrderCancelledEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		if err := c.service.RestockCancelledOrder(ctx, envelope.EventID, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to restock cancelled order", zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", envelope.Event))
	}

	return nil
}
