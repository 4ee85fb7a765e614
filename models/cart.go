package models

// CartLine is a resolved cart entry. UnitCents is always derived from the product at read time.
type CartLine struct {
	Product        *Product `json:"product"`
	Quantity       int      `json:"quantity"`
	UnitCents      int64    `json:"unit_price_cents"`
	LineTotalCents int64    `json:"line_total_cents"`
}

func NewCartLine(p *Product, quantity int) CartLine {
	unit := p.UnitCents()
	return CartLine{
		Product:        p,
		Quantity:       quantity,
		UnitCents:      unit,
		LineTotalCents: LineTotalCents(unit, quantity),
	}
}

// SessionCartEntry is the value stored per product id in the session cart map.
type SessionCartEntry struct {
	Quantity int `json:"quantity"`
}

// CartSummary is what cart endpoints render.
type CartSummary struct {
	Items         []CartLine `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	Count         int        `json:"count"`
}
