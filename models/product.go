package models

import "time"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CategoryID         int64     `json:"category_id"`
	PriceCents         int64     `json:"price_cents"`
	Quantity           int       `json:"quantity"`
	DiscountPercentage int       `json:"discount_percentage"`
	ImagePublicID      string    `json:"image_public_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// UnitCents is the price a shopper pays right now.
func (p *Product) UnitCents() int64 {
	return DiscountedCents(p.PriceCents, p.DiscountPercentage)
}

func (p *Product) IsAvailable() bool {
	return p.Quantity > 0
}
