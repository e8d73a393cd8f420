package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "HELD"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// Reservation is a temporary stock hold. The held quantity is already
// subtracted from the product's stock; releasing adds it back, committing
// makes the subtraction permanent. A HELD reservation past its expiry is
// released by the reaper.
type Reservation struct {
	ID        int64             `db:"id"`
	OrderRef  string            `db:"order_ref"`
	ProductID int64             `db:"product_id"`
	Quantity  int32             `db:"quantity"`
	Status    ReservationStatus `db:"status"`
	ExpiresAt time.Time         `db:"expires_at"`
	CreatedAt time.Time         `db:"created_at"`
}

type ReserveInput struct {
	OrderRef   string `json:"order_ref" validate:"required"`
	ProductID  int64  `json:"product_id" validate:"required"`
	Quantity   int32  `json:"quantity" validate:"required,gt=0"`
	TTLSeconds int64  `json:"ttl_seconds" validate:"required,gt=0"`
}
