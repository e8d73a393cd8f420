package domain

import "time"

type UserCreatedEvent struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type ProductCreatedEvent struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Stock     int64  `json:"stock"`
	Category  string `json:"category"`
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type OrderItemPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type OrderCreatedEvent struct {
	OrderID    int64              `json:"order_id"`
	UserID     int64              `json:"user_id"`
	Items      []OrderItemPayload `json:"items"`
	TotalPrice Money              `json:"total_price"`
	CreatedAt  time.Time          `json:"created_at"`
}
