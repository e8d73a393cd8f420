package domain

import "time"

type OrderLinePayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
	UnitPrice Money `json:"unit_price"`
}

// OrderRef is the reference the placement saga reserved stock under. The
// catalog uses it to convert any hold the synchronous commit did not reach.
type OrderCreatedEvent struct {
	OrderID    int64              `json:"order_id"`
	OrderRef   string             `json:"order_ref"`
	UserID     int64              `json:"user_id"`
	Items      []OrderLinePayload `json:"items"`
	TotalPrice Money              `json:"total_price"`
	CreatedAt  time.Time          `json:"created_at"`
}

type OrderCancelledEvent struct {
	OrderID int64              `json:"order_id"`
	UserID  int64              `json:"user_id"`
	Items   []OrderLinePayload `json:"items"`
}

type OrderConfirmedEvent struct {
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
}

// Inbound payment events; produced by the payment collaborator.
type PaymentCompletedEvent struct {
	OrderID   int64     `json:"order_id"`
	PaymentID int64     `json:"payment_id"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
}

type PaymentFailedEvent struct {
	OrderID   int64     `json:"order_id"`
	PaymentID int64     `json:"payment_id"`
	Amount    int64     `json:"amount"`
	FailedAt  time.Time `json:"failed_at"`
}

func LinePayloads(lines []OrderLine) []OrderLinePayload {
	payloads := make([]OrderLinePayload, len(lines))
	for i, line := range lines {
		payloads[i] = OrderLinePayload{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	return payloads
}
