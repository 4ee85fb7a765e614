package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

const maxAddAttempts = 3

// PersistentCart is an account's database cart. The cart row is created on first use.
type PersistentCart struct {
	store     CartStore
	accountID int64
	cartID    int64
}

func NewPersistentCart(store CartStore, accountID int64) *PersistentCart {
	return &PersistentCart{store: store, accountID: accountID}
}

func (c *PersistentCart) id(ctx context.Context) (int64, error) {
	if c.cartID != 0 {
		return c.cartID, nil
	}
	id, err := c.store.GetOrCreateCart(ctx, c.accountID)
	if err != nil {
		return 0, err
	}
	c.cartID = id
	return id, nil
}

// Add rejects quantities below one and never clamps. A concurrent insert of the
// same product turns into an update on the next attempt.
func (c *PersistentCart) Add(ctx context.Context, product *models.Product, qty int, replace bool) error {
	if product == nil {
		return models.ErrProductNotFound
	}
	if err := models.ValidateQuantity(qty); err != nil {
		return err
	}
	cartID, err := c.id(ctx)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxAddAttempts; attempt++ {
		err := c.store.UpdateLineQuantity(ctx, cartID, product.ID, qty, !replace)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrCartLineNotFound) {
			return err
		}

		err = c.store.InsertLine(ctx, cartID, product.ID, qty)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrDuplicateCartLine) {
			return err
		}
	}
	return fmt.Errorf("add product %d to cart %d: %w", product.ID, cartID, models.ErrDuplicateCartLine)
}

func (c *PersistentCart) Remove(ctx context.Context, productID int64) error {
	cartID, err := c.id(ctx)
	if err != nil {
		return err
	}
	return c.store.DeleteLine(ctx, cartID, productID)
}

func (c *PersistentCart) Clear(ctx context.Context) error {
	cartID, err := c.id(ctx)
	if err != nil {
		return err
	}
	return c.store.DeleteLines(ctx, cartID)
}

func (c *PersistentCart) Items(ctx context.Context) ([]models.CartLine, error) {
	cartID, err := c.id(ctx)
	if err != nil {
		return nil, err
	}
	return c.store.Lines(ctx, cartID)
}

func (c *PersistentCart) Count(ctx context.Context) (int, error) {
	lines, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count, nil
}

func (c *PersistentCart) SubtotalCents(ctx context.Context) (int64, error) {
	lines, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return subtotal(lines), nil
}
