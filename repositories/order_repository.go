package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/jackc/pgx/v5"
)

// OrderMutation edits a locked order. Returning false skips the write.
type OrderMutation func(order *models.Order) (changed bool, err error)

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, account_id, payment_id, checkout_session_id, total_cents, status,
	customer_name, customer_email,
	billing_line1, billing_line2, billing_city, billing_postal_code, billing_country,
	shipping_line1, shipping_line2, shipping_city, shipping_postal_code, shipping_country,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o      models.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.AccountID, &o.PaymentID, &o.CheckoutSessionID, &o.TotalCents, &status,
		&o.CustomerName, &o.CustomerEmail,
		&o.Billing.Line1, &o.Billing.Line2, &o.Billing.City, &o.Billing.PostalCode, &o.Billing.Country,
		&o.Shipping.Line1, &o.Shipping.Line2, &o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// CreatePending inserts the order and its items in one transaction.
func (r *OrderRepository) CreatePending(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer rollback(ctx, tx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (account_id, total_cents, status) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		order.AccountID, order.TotalCents, string(models.OrderStatusPending),
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.Status = models.OrderStatusPending

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPriceCents,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item for product %d: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *OrderRepository) AttachCheckoutSession(ctx context.Context, orderID int64, sessionID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET checkout_session_id = $2, updated_at = NOW() WHERE id = $1`,
		orderID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("attach checkout session to order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// DeletePending removes an order that never reached the processor. Items cascade.
func (r *OrderRepository) DeletePending(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM orders WHERE id = $1 AND status = 'pending' AND checkout_session_id IS NULL`,
		orderID,
	)
	if err != nil {
		return fmt.Errorf("delete pending order %d: %w", orderID, err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.findOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return r.findOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE checkout_session_id = $1`, sessionID)
}

func (r *OrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return r.findOne(ctx, r.db, `SELECT `+orderColumns+` FROM orders WHERE payment_id = $1`, paymentID)
}

func (r *OrderRepository) findOne(ctx context.Context, q DBTX, query string, arg any) (*models.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.Items, err = r.items(ctx, q, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) items(ctx context.Context, q DBTX, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price_cents
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListByAccount pages through an account's orders, newest first. Items are not loaded.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID int64, page, limit int) ([]models.Order, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE account_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

// UpdateByID locks the order row, applies fn and saves the result.
func (r *OrderRepository) UpdateByID(ctx context.Context, id int64, fn OrderMutation) (*models.Order, error) {
	return r.update(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id, fn)
}

func (r *OrderRepository) UpdateByPaymentID(ctx context.Context, paymentID string, fn OrderMutation) (*models.Order, error) {
	return r.update(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_id = $1 FOR UPDATE`, paymentID, fn)
}

func (r *OrderRepository) update(ctx context.Context, query string, key any, fn OrderMutation) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer rollback(ctx, tx)

	order, err := r.findOne(ctx, tx, query, key)
	if err != nil {
		return nil, err
	}

	changed, err := fn(order)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := saveOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order %d: %w", order.ID, err)
	}
	return order, nil
}

func saveOrder(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	query := `
		UPDATE orders SET
			payment_id = $2, status = $3, customer_name = $4, customer_email = $5,
			billing_line1 = $6, billing_line2 = $7, billing_city = $8, billing_postal_code = $9, billing_country = $10,
			shipping_line1 = $11, shipping_line2 = $12, shipping_city = $13, shipping_postal_code = $14, shipping_country = $15,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := tx.QueryRow(ctx, query,
		o.ID, o.PaymentID, string(o.Status), o.CustomerName, o.CustomerEmail,
		o.Billing.Line1, o.Billing.Line2, o.Billing.City, o.Billing.PostalCode, o.Billing.Country,
		o.Shipping.Line1, o.Shipping.Line2, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Country,
	).Scan(&o.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %d: %w", o.ID, models.ErrDuplicatePaymentID)
	}
	if err != nil {
		return fmt.Errorf("save order %d: %w", o.ID, err)
	}
	return nil
}
