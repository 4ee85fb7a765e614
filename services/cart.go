package services

import (
	"context"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

// Cart is implemented by the session-backed and the account-backed cart.
type Cart interface {
	Add(ctx context.Context, product *models.Product, qty int, replace bool) error
	Remove(ctx context.Context, productID int64) error
	Clear(ctx context.Context) error
	Items(ctx context.Context) ([]models.CartLine, error)
	Count(ctx context.Context) (int, error)
	SubtotalCents(ctx context.Context) (int64, error)
}

func subtotal(lines []models.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineTotalCents
	}
	return total
}

// Summarize reads items, subtotal and count in one pass over the cart.
func Summarize(ctx context.Context, cart Cart) (*models.CartSummary, error) {
	lines, err := cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	count, err := cart.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.CartSummary{
		Items:         lines,
		SubtotalCents: subtotal(lines),
		Count:         count,
	}, nil
}
