package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

const sessionCartField = "cart"

// SessionCart is the anonymous shopper's cart, stored in the browser session as
// product-id-string -> {"quantity": n}.
type SessionCart struct {
	store     SessionValues
	products  ProductLookup
	sessionID string
}

func NewSessionCart(store SessionValues, products ProductLookup, sessionID string) *SessionCart {
	return &SessionCart{store: store, products: products, sessionID: sessionID}
}

func (c *SessionCart) load(ctx context.Context) (map[string]models.SessionCartEntry, error) {
	entries := map[string]models.SessionCartEntry{}
	if _, err := c.store.Get(ctx, c.sessionID, sessionCartField, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = map[string]models.SessionCartEntry{}
	}
	return entries, nil
}

func (c *SessionCart) save(ctx context.Context, entries map[string]models.SessionCartEntry) error {
	return c.store.Set(ctx, c.sessionID, sessionCartField, entries)
}

// Add clamps the resulting quantity to [1, max(stock, 1)].
func (c *SessionCart) Add(ctx context.Context, product *models.Product, qty int, replace bool) error {
	if product == nil {
		return models.ErrProductNotFound
	}
	entries, err := c.load(ctx)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(product.ID, 10)
	next := qty
	if !replace {
		next = entries[key].Quantity + qty
	}
	entries[key] = models.SessionCartEntry{Quantity: models.ClampQuantity(next, product.Quantity)}
	return c.save(ctx, entries)
}

func (c *SessionCart) Remove(ctx context.Context, productID int64) error {
	entries, err := c.load(ctx)
	if err != nil {
		return err
	}
	key := strconv.FormatInt(productID, 10)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return c.save(ctx, entries)
}

func (c *SessionCart) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.sessionID, sessionCartField)
}

// Items re-resolves stored ids against the catalog. Unknown products are skipped.
func (c *SessionCart) Items(ctx context.Context) ([]models.CartLine, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []models.CartLine{}, nil
	}

	ids := make([]int64, 0, len(entries))
	for key := range entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	found, err := c.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve session cart products: %w", err)
	}

	lines := make([]models.CartLine, 0, len(found))
	for _, id := range ids {
		product, ok := found[id]
		if !ok {
			continue
		}
		lines = append(lines, models.NewCartLine(product, entries[strconv.FormatInt(id, 10)].Quantity))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

// Count sums the stored quantities, including entries whose product no longer resolves.
func (c *SessionCart) Count(ctx context.Context) (int, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		count += entry.Quantity
	}
	return count, nil
}

func (c *SessionCart) SubtotalCents(ctx context.Context) (int64, error) {
	lines, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return subtotal(lines), nil
}
