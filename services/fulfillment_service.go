package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"golang.org/x/sync/singleflight"
)

type Outcome string

const (
	OutcomeFulfilled       Outcome = "fulfilled"
	OutcomeCancelled       Outcome = "cancelled"
	OutcomeAlreadyTerminal Outcome = "already_terminal"
	OutcomeOrderMissing    Outcome = "order_missing"
	OutcomeIgnored         Outcome = "ignored"
)

const notifyTimeout = 10 * time.Second

// AccountLookup is the slice of AccountStore fulfillment needs.
type AccountLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
}

// FulfillmentService applies verified payment events to orders. Deliveries are
// at-least-once and unordered; every path is safe to repeat.
type FulfillmentService struct {
	orders   OrderStore
	accounts AccountLookup
	notifier OrderNotifier
	logger   *slog.Logger
	metrics  Recorder
	inflight singleflight.Group
}

func NewFulfillmentService(orders OrderStore, accounts AccountLookup, notifier OrderNotifier, logger *slog.Logger, metrics Recorder) *FulfillmentService {
	return &FulfillmentService{
		orders:   orders,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
		metrics:  recorderOrNop(metrics),
	}
}

// HandleEvent returns ErrOrderNotFound only for payment-success events whose order
// cannot be resolved. Every other unmatched event is a no-op.
func (s *FulfillmentService) HandleEvent(ctx context.Context, event *models.PaymentEvent) (Outcome, error) {
	key := inflightKey(event)
	if key == "" {
		s.metrics.ObserveWebhook(event.Type, string(OutcomeIgnored))
		return OutcomeIgnored, nil
	}

	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		return s.dispatch(context.WithoutCancel(ctx), event)
	})
	outcome, _ := v.(Outcome)
	if err != nil {
		if outcome == "" {
			outcome = "error"
		}
		s.metrics.ObserveWebhook(event.Type, string(outcome))
		return outcome, err
	}
	s.metrics.ObserveWebhook(event.Type, string(outcome))
	return outcome, nil
}

func inflightKey(event *models.PaymentEvent) string {
	switch {
	case event.Session != nil:
		return event.Type + ":" + event.Session.ID
	case event.PaymentIntent != nil:
		return event.Type + ":" + event.PaymentIntent.ID
	}
	return ""
}

func (s *FulfillmentService) dispatch(ctx context.Context, event *models.PaymentEvent) (Outcome, error) {
	log := s.logger.With("event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case models.EventCheckoutCompleted, models.EventCheckoutAsyncPaymentSucceeded:
		return s.fulfill(ctx, log, event.Session)
	case models.EventCheckoutExpired, models.EventCheckoutAsyncPaymentFailed:
		return s.cancelByReference(ctx, log, event.Session)
	case models.EventPaymentIntentFailed, models.EventPaymentIntentCanceled:
		return s.cancelByPayment(ctx, log, event.PaymentIntent)
	}
	return OutcomeIgnored, nil
}

func parseOrderReference(ref string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("client reference %q: %w", ref, models.ErrOrderNotFound)
	}
	return id, nil
}

func (s *FulfillmentService) fulfill(ctx context.Context, log *slog.Logger, details *models.CheckoutSessionDetails) (Outcome, error) {
	orderID, err := parseOrderReference(details.ClientReference)
	if err != nil {
		log.Warn("completed checkout without a known order", "client_reference", details.ClientReference)
		return OutcomeOrderMissing, err
	}
	log = log.With("order_id", orderID)

	outcome := OutcomeFulfilled
	order, err := s.orders.UpdateByID(ctx, orderID, func(o *models.Order) (bool, error) {
		switch o.Status {
		case models.OrderStatusPaid:
			outcome = OutcomeAlreadyTerminal
			return false, nil
		case models.OrderStatusCancelled:
			log.Warn("payment succeeded for a cancelled order", "payment_id", details.PaymentIntentID)
			outcome = OutcomeAlreadyTerminal
			return false, nil
		}

		if err := o.Fulfill(s.fulfillmentFor(ctx, log, o, details)); err != nil {
			return false, err
		}
		if err := o.SetStatus(string(models.OrderStatusPaid)); err != nil {
			return false, err
		}
		return true, nil
	})
	if errors.Is(err, models.ErrOrderNotFound) {
		log.Warn("completed checkout without a known order")
		return OutcomeOrderMissing, err
	}
	if err != nil {
		log.Error("order fulfillment failed", "error", err)
		return "", err
	}

	if outcome == OutcomeFulfilled {
		log.Info("order paid", "payment_id", details.PaymentIntentID, "total_cents", order.TotalCents)
		s.notify(ctx, log, order)
	}
	return outcome, nil
}

// fulfillmentFor uses the owning account's address for both blocks when the order
// has an owner, otherwise the details collected by the processor.
func (s *FulfillmentService) fulfillmentFor(ctx context.Context, log *slog.Logger, o *models.Order, d *models.CheckoutSessionDetails) models.Fulfillment {
	guest := models.Fulfillment{
		Name:      d.CustomerName,
		Email:     d.CustomerEmail,
		PaymentID: d.PaymentIntentID,
		Billing:   d.BillingAddress,
		Shipping:  d.ShippingAddress,
	}
	if o.AccountID == nil || s.accounts == nil {
		return guest
	}

	account, err := s.accounts.FindByID(ctx, *o.AccountID)
	if err != nil {
		log.Warn("order owner unavailable, using checkout details", "account_id", *o.AccountID, "error", err)
		return guest
	}
	addr := account.Address()
	return models.Fulfillment{
		Name:      models.StringPtr(account.FullName()),
		Email:     models.StringPtr(account.Email),
		PaymentID: d.PaymentIntentID,
		Billing:   addr,
		Shipping:  addr,
	}
}

func (s *FulfillmentService) notify(ctx context.Context, log *slog.Logger, order *models.Order) {
	if s.notifier == nil || order.CustomerEmail == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		log.Warn("order confirmation email failed", "error", err)
	}
}

func (s *FulfillmentService) cancelByReference(ctx context.Context, log *slog.Logger, details *models.CheckoutSessionDetails) (Outcome, error) {
	orderID, err := parseOrderReference(details.ClientReference)
	if err != nil {
		return OutcomeOrderMissing, nil
	}
	return s.cancel(log.With("order_id", orderID), func(fn func(*models.Order) (bool, error)) (*models.Order, error) {
		return s.orders.UpdateByID(ctx, orderID, fn)
	})
}

// cancelByPayment only matches on payment id. Orders are never looked up by
// reference here, so a failed attempt cannot cancel an order that a later retry pays.
func (s *FulfillmentService) cancelByPayment(ctx context.Context, log *slog.Logger, pi *models.PaymentIntentDetails) (Outcome, error) {
	return s.cancel(log.With("payment_id", pi.ID), func(fn func(*models.Order) (bool, error)) (*models.Order, error) {
		return s.orders.UpdateByPaymentID(ctx, pi.ID, fn)
	})
}

func (s *FulfillmentService) cancel(log *slog.Logger, update func(func(*models.Order) (bool, error)) (*models.Order, error)) (Outcome, error) {
	outcome := OutcomeCancelled
	_, err := update(func(o *models.Order) (bool, error) {
		if o.Status.IsTerminal() {
			outcome = OutcomeAlreadyTerminal
			return false, nil
		}
		if err := o.SetStatus(string(models.OrderStatusCancelled)); err != nil {
			return false, err
		}
		return true, nil
	})
	if errors.Is(err, models.ErrOrderNotFound) {
		return OutcomeOrderMissing, nil
	}
	if err != nil {
		log.Error("order cancellation failed", "error", err)
		return "", err
	}
	if outcome == OutcomeCancelled {
		log.Info("order cancelled")
	}
	return outcome, nil
}
