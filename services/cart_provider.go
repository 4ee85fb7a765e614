package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

var ErrNoSession = fmt.Errorf("%w: no browser session", models.ErrValidation)

// CartProvider picks the cart for a shopper and moves session carts into account carts at login.
type CartProvider struct {
	sessions SessionValues
	products ProductLookup
	carts    CartStore
	logger   *slog.Logger
	metrics  Recorder
}

func NewCartProvider(sessions SessionValues, products ProductLookup, carts CartStore, logger *slog.Logger, metrics Recorder) *CartProvider {
	return &CartProvider{
		sessions: sessions,
		products: products,
		carts:    carts,
		logger:   logger,
		metrics:  recorderOrNop(metrics),
	}
}

func (p *CartProvider) Session(sessionID string) *SessionCart {
	return NewSessionCart(p.sessions, p.products, sessionID)
}

func (p *CartProvider) Account(accountID int64) *PersistentCart {
	return NewPersistentCart(p.carts, accountID)
}

// ForShopper returns the account cart when authenticated, otherwise the session cart.
func (p *CartProvider) ForShopper(shopper models.Shopper) (Cart, error) {
	if shopper.Authenticated() {
		return p.Account(shopper.AccountID), nil
	}
	if shopper.SessionID == "" {
		return nil, ErrNoSession
	}
	return p.Session(shopper.SessionID), nil
}

// MergeSessionCart adds every session line to the account cart without replacing,
// then clears the session cart whether or not every line made it.
func (p *CartProvider) MergeSessionCart(ctx context.Context, sessionID string, accountID int64) error {
	if sessionID == "" {
		return nil
	}
	log := p.logger.With("session_id", sessionID, "account_id", accountID)

	session := p.Session(sessionID)
	account := p.Account(accountID)

	var errs []error
	lines, err := session.Items(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("read session cart: %w", err))
	}
	merged := 0
	for _, line := range lines {
		if err := account.Add(ctx, line.Product, line.Quantity, false); err != nil {
			errs = append(errs, fmt.Errorf("merge product %d: %w", line.Product.ID, err))
			continue
		}
		merged++
	}

	if err := session.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear session cart: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		p.metrics.ObserveMerge("error")
		log.Error("session cart merge incomplete", "merged", merged, "lines", len(lines), "error", err)
		return err
	}
	if len(lines) > 0 {
		p.metrics.ObserveMerge("merged")
		log.Info("session cart merged", "merged", merged)
	}
	return nil
}
