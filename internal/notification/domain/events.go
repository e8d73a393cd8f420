package domain

import "time"

// Inbound from the user topic. Keeps the local recipient directory current.
type UserCreatedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Inbound from the order topic.
type OrderCreatedEvent struct {
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	TotalPrice Money     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// Inbound from the payment topic. Payment events carry no user id; the
// recipient is resolved through the order contact recorded at OrderCreated.
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
