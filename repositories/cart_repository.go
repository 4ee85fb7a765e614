package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/jackc/pgx/v5"
)

type CartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// GetOrCreateCart returns the account's cart id, creating the cart on first use.
func (r *CartRepository) GetOrCreateCart(ctx context.Context, accountID int64) (int64, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO carts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`,
		accountID,
	)
	if err != nil {
		return 0, fmt.Errorf("ensure cart for account %d: %w", accountID, err)
	}

	var cartID int64
	err = r.db.QueryRow(ctx, `SELECT id FROM carts WHERE account_id = $1`, accountID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, models.ErrCartNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find cart for account %d: %w", accountID, err)
	}
	return cartID, nil
}

func (r *CartRepository) InsertLine(ctx context.Context, cartID, productID int64, qty int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cart_lines (cart_id, product_id, quantity) VALUES ($1, $2, $3)`,
		cartID, productID, qty,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicateCartLine
	}
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

// UpdateLineQuantity either adds qty to the stored quantity or overwrites it.
func (r *CartRepository) UpdateLineQuantity(ctx context.Context, cartID, productID int64, qty int, increment bool) error {
	query := `UPDATE cart_lines SET quantity = $3 WHERE cart_id = $1 AND product_id = $2`
	if increment {
		query = `UPDATE cart_lines SET quantity = quantity + $3 WHERE cart_id = $1 AND product_id = $2`
	}
	tag, err := r.db.Exec(ctx, query, cartID, productID, qty)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepository) DeleteLine(ctx context.Context, cartID, productID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteLines(ctx context.Context, cartID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart %d: %w", cartID, err)
	}
	return nil
}

// Lines resolves every line against its product, ordered by product id.
func (r *CartRepository) Lines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	query := `
		SELECT cl.quantity,
			p.id, p.name, p.description, p.category_id, p.price_cents, p.quantity,
			p.discount_percentage, p.image_public_id, p.created_at
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.cart_id = $1
		ORDER BY p.id
	`
	rows, err := r.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var qty int
		p := &models.Product{}
		if err := rows.Scan(
			&qty,
			&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.PriceCents, &p.Quantity,
			&p.DiscountPercentage, &p.ImagePublicID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, models.NewCartLine(p, qty))
	}
	return lines, rows.Err()
}
