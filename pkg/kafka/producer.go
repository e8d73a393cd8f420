package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
	Close() error
}

type producer struct {
	syncProducer sarama.SyncProducer
}

// NewProducer returns a synchronous producer that waits for acknowledgment
// from all in-sync replicas before returning. The outbox worker relies on
// this: an entry is marked published only after the broker durably accepted it.
func NewProducer(brokers []string) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}

	return &producer{syncProducer: p}, nil
}

func (p *producer) ProduceMessage(ctx context.Context, topic string, message interface{}) error {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		return err
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	var headers []sarama.RecordHeader
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.StringEncoder(jsonMsg),
		Headers: headers,
	}

	if _, _, err := p.syncProducer.SendMessage(msg); err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	return nil
}

func (p *producer) Close() error {
	return p.syncProducer.Close()
}
