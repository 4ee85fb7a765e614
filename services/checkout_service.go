package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

type CheckoutConfig struct {
	Currency          string
	SiteURL           string
	ShippingCountries []string
}

type CheckoutService struct {
	orders    OrderStore
	processor PaymentProcessor
	images    ImageResolver
	cfg       CheckoutConfig
	logger    *slog.Logger
	metrics   Recorder
}

type CheckoutResult struct {
	Order   *models.Order
	Session *models.CheckoutSession
}

// NewCheckoutService accepts a nil ImageResolver; line items are then sent without images.
func NewCheckoutService(orders OrderStore, processor PaymentProcessor, images ImageResolver, cfg CheckoutConfig, logger *slog.Logger, metrics Recorder) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		processor: processor,
		images:    images,
		cfg:       cfg,
		logger:    logger,
		metrics:   recorderOrNop(metrics),
	}
}

// CreateSession snapshots the cart into a pending order and opens a hosted checkout for it.
// If the processor refuses, the order is deleted again.
func (s *CheckoutService) CreateSession(ctx context.Context, cart Cart, shopper models.Shopper) (*CheckoutResult, error) {
	lines, err := cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		s.metrics.ObserveCheckout("empty")
		return nil, models.ErrNothingToCheckout
	}

	order := models.NewPendingOrder(shopper.AccountID, lines)
	if err := s.orders.CreatePending(ctx, order); err != nil {
		s.metrics.ObserveCheckout("error")
		return nil, fmt.Errorf("create pending order: %w", err)
	}
	log := s.logger.With("order_id", order.ID, "account_id", shopper.AccountID)

	session, err := s.processor.CreateCheckoutSession(ctx, s.buildRequest(order, lines, shopper))
	if err != nil {
		s.metrics.ObserveCheckout("processor_error")
		if delErr := s.orders.DeletePending(context.WithoutCancel(ctx), order.ID); delErr != nil {
			log.Error("failed to remove order after processor error", "error", delErr)
		}
		log.Warn("checkout session request failed", "error", err)
		if !errors.Is(err, models.ErrPaymentProvider) {
			err = fmt.Errorf("%w: %v", models.ErrPaymentProvider, err)
		}
		return nil, err
	}

	// The webhook resolves orders by client reference, so a missing session id only
	// affects the success page lookup.
	if err := s.orders.AttachCheckoutSession(ctx, order.ID, session.ID); err != nil {
		log.Warn("failed to record checkout session id", "checkout_session_id", session.ID, "error", err)
	} else {
		sid := session.ID
		order.CheckoutSessionID = &sid
	}

	s.metrics.ObserveCheckout("created")
	log.Info("checkout session created", "checkout_session_id", session.ID, "total_cents", order.TotalCents)
	return &CheckoutResult{Order: order, Session: session}, nil
}

func (s *CheckoutService) buildRequest(order *models.Order, lines []models.CartLine, shopper models.Shopper) models.CheckoutSessionRequest {
	req := models.CheckoutSessionRequest{
		ClientReference: strconv.FormatInt(order.ID, 10),
		Currency:        s.cfg.Currency,
		SuccessURL:      s.cfg.SiteURL + "/cart/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       s.cfg.SiteURL + "/cart/checkout/cancel",
	}

	for _, line := range lines {
		req.LineItems = append(req.LineItems, models.CheckoutLineItem{
			Name:            line.Product.Name,
			ImageURL:        s.imageURL(line.Product),
			UnitAmountCents: line.UnitCents,
			Quantity:        line.Quantity,
		})
	}

	if shopper.Authenticated() {
		req.CustomerEmail = shopper.Email
	} else {
		req.BillingAddressRequired = true
		req.CollectShipping = true
		req.AllowedShippingCountries = s.cfg.ShippingCountries
	}
	return req
}

func (s *CheckoutService) imageURL(p *models.Product) string {
	if s.images == nil || p.ImagePublicID == "" {
		return ""
	}
	url, err := s.images.ProductImageURL(p.ImagePublicID)
	if err != nil {
		s.logger.Warn("product image url unavailable", "product_id", p.ID, "error", err)
		return ""
	}
	return url
}
