package domain

import "time"

// Replica rows are keyed by the source system's ids. Replication applies
// upserts only, so redelivered or out-of-order events converge on the same
// row instead of conflicting.
type SellerUser struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type SellerProduct struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Currency  string    `db:"currency" json:"currency"`
	Stock     int64     `db:"stock" json:"stock"`
	Category  string    `db:"category" json:"category"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type SellerOrder struct {
	OrderID   int64     `db:"order_id" json:"order_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Total     int64     `db:"total" json:"total"`
	Currency  string    `db:"currency" json:"currency"`
	ItemCount int32     `db:"item_count" json:"item_count"`
	PlacedAt  time.Time `db:"placed_at" json:"placed_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the aggregate view served to the dashboard UI.
type Summary struct {
	Users    int64 `json:"users"`
	Products int64 `json:"products"`
	Orders   int64 `json:"orders"`
	Revenue  int64 `json:"revenue"`
}
