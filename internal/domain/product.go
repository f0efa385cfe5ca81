package domain

import "time"

// Product is the catalog view this core consumes: live price, stock and
// active state. Stock is owned by the catalog and never mutated here.
type Product struct {
	ID         string
	Title      string
	SKU        string
	Image      string
	Attributes map[string]string
	Price      float64
	Currency   string
	Stock      int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
