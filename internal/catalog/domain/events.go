package domain

type ProductCreatedEvent struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Stock     int64  `json:"stock"`
	Category  string `json:"category"`
}

// Inbound from the order topic. A placed order converts the holds reserved
// under its order ref into permanent deductions.
type OrderCreatedEvent struct {
	OrderID  int64  `json:"order_id"`
	OrderRef string `json:"order_ref"`
}

// Inbound from the order topic. A cancelled order returns its committed
// quantities to stock.
type CancelledOrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type OrderCancelledEvent struct {
	OrderID int64                `json:"order_id"`
	UserID  int64                `json:"user_id"`
	Items   []CancelledOrderLine `json:"items"`
}
