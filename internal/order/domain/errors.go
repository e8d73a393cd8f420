package domain

import (
	"errors"
	"fmt"
)

// Business-rule violations. These are terminal for the current placement and
// are never retried.
var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrMixedCurrency          = errors.New("cart items have mixed currencies")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
	ErrNotOwner               = errors.New("order does not belong to requester")
)

// ErrUpstreamUnavailable is surfaced after transient-infrastructure failures
// exhausted their retry budget. It carries no collaborator details.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// InsufficientStockError names the first line whose requested quantity
// exceeds available stock. The whole order is rejected; no partial orders.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// ProductUnavailableError names a product the catalog did not return a quote
// for. Missing products abort the saga instead of being silently skipped.
type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d is unavailable", e.ProductID)
}
