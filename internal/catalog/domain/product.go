package domain

import "time"

// Product prices are minor currency units (paise, cents). Stock is the
// sellable quantity; active holds have already been subtracted from it.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       int64     `db:"price" json:"price"`
	Currency    string    `db:"currency" json:"currency"`
	Stock       int64     `db:"stock" json:"stock"`
	ImageUrl    string    `db:"image_url" json:"image_url"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	DeletedAt   time.Time `db:"deleted_at" json:"-"`
}

type CreateProductInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Stock       int64  `json:"stock" validate:"gte=0"`
	ImageUrl    string `json:"image_url"`
	Category    string `json:"category"`
}

type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int64  `json:"stock"`
	ImageUrl    *string `json:"image_url"`
	Category    *string `json:"category"`
}

// Money mirrors the wire form quotes are served in.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Quote is the price and availability of one product at the moment it was
// read. Callers snapshot quotes; they are never refreshed server side.
type Quote struct {
	ProductID int64 `json:"product_id"`
	Price     Money `json:"price"`
	Stock     int64 `json:"stock"`
}

func (p *Product) Quote() Quote {
	return Quote{
		ProductID: p.ID,
		Price:     Money{Amount: p.Price, Currency: p.Currency},
		Stock:     p.Stock,
	}
}
