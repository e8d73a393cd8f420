package domain

import (
	"encoding/json"
	"time"
)

// OutboxEvent is one row of the transactional outbox. It is inserted in the
// same transaction as the aggregate change it describes, and published to the
// broker asynchronously. PublishedAt is set exactly once, after the broker
// confirmed the message.
type OutboxEvent struct {
	Id            int64           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Headers       json.RawMessage `db:"headers"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
	Attempts      int64           `db:"attempts"`
	LastError     *string         `db:"last_error"`
	Topic         string          `db:"topic"`
}

// Envelope is the wire form consumers receive. EventID is the outbox row id,
// unique only within one producer; consumers dedup on it together with the
// topic the event arrived on.
type Envelope struct {
	Event       string          `json:"event"`
	EventID     int64           `json:"event_id"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewOutboxEvent wraps payload in the {event, payload} envelope and returns
// an entry ready to be saved within the caller's transaction.
func NewOutboxEvent(topic, aggregateType, aggregateID, eventType string, payload any) (*OutboxEvent, error) {
	wrapper := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       wrapperBytes,
		Topic:         topic,
	}, nil
}
