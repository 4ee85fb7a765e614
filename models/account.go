package models

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	Role         string    `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Address is the stored account address as an order address block.
// Empty line2 stays null.
func (a *Account) Address() Address {
	return Address{
		Line1:      StringPtr(a.AddressLine1),
		Line2:      StringPtr(a.AddressLine2),
		City:       StringPtr(a.City),
		PostalCode: StringPtr(a.PostalCode),
		Country:    StringPtr(a.Country),
	}
}

// Shopper identifies who is acting on a cart: an account, a browser session, or both.
type Shopper struct {
	AccountID int64
	Email     string
	SessionID string
}

func (s Shopper) Authenticated() bool {
	return s.AccountID > 0
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
