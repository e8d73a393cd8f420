package repository

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidTransition      = errors.New("order status transition not allowed")
	ErrDuplicateIdempotencyKey = errors.New("placement with this idempotency key already exists")
)
