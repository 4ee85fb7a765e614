package models

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists every allowed move; anything absent is illegal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
}

// ParseOrderStatus normalizes case and rejects values outside the fixed set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// Address is an order billing or shipping block. Every field may be null.
type Address struct {
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

type Order struct {
	ID                int64       `json:"id"`
	AccountID         *int64      `json:"account_id,omitempty"`
	PaymentID         *string     `json:"payment_id,omitempty"`
	CheckoutSessionID *string     `json:"checkout_session_id,omitempty"`
	TotalCents        int64       `json:"total_cents"`
	Status            OrderStatus `json:"status"`
	CustomerName      *string     `json:"customer_name,omitempty"`
	CustomerEmail     *string     `json:"customer_email,omitempty"`
	Billing           Address     `json:"billing"`
	Shipping          Address     `json:"shipping"`
	Items             []OrderItem `json:"items,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

func (i OrderItem) LineTotalCents() int64 {
	return LineTotalCents(i.UnitPriceCents, i.Quantity)
}

// Fulfillment is the payer data recorded once payment is confirmed.
type Fulfillment struct {
	Name      *string
	Email     *string
	PaymentID string
	Billing   Address
	Shipping  Address
}

// NewPendingOrder snapshots cart lines into an unsaved pending order.
func NewPendingOrder(accountID int64, lines []CartLine) *Order {
	order := &Order{Status: OrderStatusPending}
	if accountID > 0 {
		id := accountID
		order.AccountID = &id
	}
	for _, line := range lines {
		order.Items = append(order.Items, OrderItem{
			ProductID:      line.Product.ID,
			ProductName:    line.Product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitCents,
		})
		order.TotalCents += line.LineTotalCents
	}
	return order
}

// SetStatus moves the order along the transition table. On error the status is unchanged.
func (o *Order) SetStatus(status string) error {
	next, err := ParseOrderStatus(status)
	if err != nil {
		return err
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
	}
	o.Status = next
	return nil
}

// Fulfill records payer details. Only pending orders can be fulfilled and payment_id never changes once set.
// An empty PaymentID (no-cost checkouts carry no payment) leaves payment_id null.
func (o *Order) Fulfill(f Fulfillment) error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotPending, o.ID, o.Status)
	}
	if f.PaymentID != "" {
		if o.PaymentID != nil && *o.PaymentID != f.PaymentID {
			return fmt.Errorf("%w: payment id already set on order %d", ErrValidation, o.ID)
		}
		pid := f.PaymentID
		o.PaymentID = &pid
	}
	o.CustomerName = f.Name
	o.CustomerEmail = f.Email
	o.Billing = f.Billing
	o.Shipping = f.Shipping
	return nil
}

// OwnedBy reports whether the account owns this order. Guest orders are owned by nobody.
func (o *Order) OwnedBy(accountID int64) bool {
	return o.AccountID != nil && *o.AccountID == accountID
}

func (o *Order) Number() string {
	return fmt.Sprintf("ORD-%d", o.ID)
}
