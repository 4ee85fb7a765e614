package models

import "fmt"

// DiscountedCents applies a whole-percent discount to a price in cents.
// The discount amount is truncated, so the shopper never pays a fraction of a cent more.
func DiscountedCents(priceCents int64, discountPercentage int) int64 {
	if discountPercentage <= 0 {
		return priceCents
	}
	if discountPercentage > 100 {
		discountPercentage = 100
	}
	discount := priceCents * int64(discountPercentage) / 100
	return priceCents - discount
}

// LineTotalCents is unit price times quantity.
func LineTotalCents(unitCents int64, quantity int) int64 {
	return unitCents * int64(quantity)
}

// ClampQuantity bounds qty to [1, max(available, 1)].
func ClampQuantity(qty, available int) int {
	upper := available
	if upper < 1 {
		upper = 1
	}
	if qty > upper {
		qty = upper
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}

// ValidateQuantity rejects quantities below one.
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// FormatCents renders cents as dollars, e.g. 1234 -> "$12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
