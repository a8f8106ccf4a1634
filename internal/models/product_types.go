package models

import (
	"math"
	"time"
)

// Product is the model for the 'products' table. The catalog service owns
// these rows; the order core reads them and decrements stock at checkout.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Discount    float64   `json:"discount" db:"discount"` // Percentage, 0-100
	Stock       int       `json:"stock" db:"stock"`
	ImageURL    *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// DiscountedPrice is the effective unit price after the percentage discount,
// computed at read time. This is the price carts total against and the price
// snapshotted onto order items at checkout.
func (p *Product) DiscountedPrice() float64 {
	if p.Discount > 0 {
		return RoundMoney(p.Price - (p.Price*p.Discount)/100)
	}
	return p.Price
}

// IsInStock reports whether at least one unit is available.
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// RoundMoney rounds a monetary amount to two decimal places.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
