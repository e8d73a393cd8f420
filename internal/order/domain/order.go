package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// allowedTransitions guards every status mutation. SHIPPED and DELIVERED are
// driven by external fulfillment events only.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusShipped},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Money is an amount in minor currency units (paise, cents).
type Money struct {
	Amount   int64  `json:"amount" db:"amount"`
	Currency string `json:"currency" db:"currency"`
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// OrderLine carries the unit price snapshotted at placement time. Later price
// changes at the catalog never alter a placed order.
type OrderLine struct {
	ID        int64 `db:"id"`
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int32 `db:"quantity"`
	UnitPrice Money `db:"unit_price"`
}

func (l OrderLine) Total() int64 {
	return l.UnitPrice.Amount * int64(l.Quantity)
}

type Order struct {
	ID              int64       `db:"id"`
	UserID          int64       `db:"user_id"`
	Lines           []OrderLine `db:"lines"`
	Subtotal        int64       `db:"subtotal"`
	Tax             int64       `db:"tax"`
	ShippingFee     int64       `db:"shipping_fee"`
	Total           int64       `db:"total"`
	Currency        string      `db:"currency"`
	ShippingAddress Address     `db:"shipping_address"`
	Status          OrderStatus `db:"status"`
	IdempotencyKey  *string     `db:"idempotency_key"`
	Version         int64       `db:"version"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ComputeTotals fills subtotal, tax, shipping and total from the lines.
// Invariant: total == subtotal + tax + shipping, always.
func (o *Order) ComputeTotals(taxRatePercent, shippingFee int64) {
	var subtotal int64
	for _, line := range o.Lines {
		subtotal += line.Total()
	}

	o.Subtotal = subtotal
	o.Tax = subtotal * taxRatePercent / 100
	o.ShippingFee = shippingFee
	o.Total = o.Subtotal + o.Tax + o.ShippingFee
}

// TotalPrice is the order's price as a single value object.
func (o *Order) TotalPrice() Money {
	return Money{Amount: o.Total, Currency: o.Currency}
}

// OrderRequest is the ephemeral placement input; it is never persisted on its
// own.
type OrderRequest struct {
	UserID          int64
	ShippingAddress Address
	IdempotencyKey  *string
}
