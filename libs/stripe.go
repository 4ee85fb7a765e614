package libs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway creates hosted checkout sessions and verifies webhook deliveries.
type StripeGateway struct {
	sessions      session.Client
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sessions: session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req models.CheckoutSessionRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.ClientReference),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.ClientReference)

	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
				ProductData: product,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.BillingAddressRequired {
		params.BillingAddressCollection = stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired))
	} else {
		params.BillingAddressCollection = stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto))
	}
	if req.CollectShipping {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedShippingCountries),
		}
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentProvider, err)
	}
	return &models.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header and decodes the event payload.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	return parseEvent(event.ID, string(event.Type), event.Data)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

type stripeAddress struct {
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

func (a *stripeAddress) toAddress() models.Address {
	if a == nil {
		return models.Address{}
	}
	return models.Address{
		Line1:      nonEmpty(a.Line1),
		Line2:      nonEmpty(a.Line2),
		City:       nonEmpty(a.City),
		PostalCode: nonEmpty(a.PostalCode),
		Country:    nonEmpty(a.Country),
	}
}

type stripeShippingDetails struct {
	Name    *string        `json:"name"`
	Address *stripeAddress `json:"address"`
}

type stripeCheckoutSession struct {
	ID                string          `json:"id"`
	ClientReferenceID *string         `json:"client_reference_id"`
	PaymentIntent     json.RawMessage `json:"payment_intent"`
	CustomerDetails   *struct {
		Name    *string        `json:"name"`
		Email   *string        `json:"email"`
		Address *stripeAddress `json:"address"`
	} `json:"customer_details"`
	CustomerEmail        *string `json:"customer_email"`
	CollectedInformation *struct {
		ShippingDetails *stripeShippingDetails `json:"shipping_details"`
	} `json:"collected_information"`
	ShippingDetails *stripeShippingDetails `json:"shipping_details"`
}

func parseEvent(id, eventType string, data *stripe.EventData) (*models.PaymentEvent, error) {
	event := &models.PaymentEvent{ID: id, Type: eventType}
	if data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", models.ErrMalformedEvent, id)
	}

	switch eventType {
	case models.EventCheckoutCompleted,
		models.EventCheckoutAsyncPaymentSucceeded,
		models.EventCheckoutAsyncPaymentFailed,
		models.EventCheckoutExpired:
		details, err := parseCheckoutSession(data.Raw)
		if err != nil {
			return nil, err
		}
		event.Session = details
	case models.EventPaymentIntentFailed, models.EventPaymentIntentCanceled:
		var pi struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data.Raw, &pi); err != nil || pi.ID == "" {
			return nil, fmt.Errorf("%w: payment intent without id", models.ErrMalformedEvent)
		}
		event.PaymentIntent = &models.PaymentIntentDetails{ID: pi.ID}
	}
	return event, nil
}

func parseCheckoutSession(raw json.RawMessage) (*models.CheckoutSessionDetails, error) {
	var s stripeCheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}

	details := &models.CheckoutSessionDetails{
		ID:              s.ID,
		PaymentIntentID: paymentIntentID(s.PaymentIntent),
	}
	if s.ClientReferenceID != nil {
		details.ClientReference = strings.TrimSpace(*s.ClientReferenceID)
	}
	if s.CustomerDetails != nil {
		details.CustomerName = nonEmpty(s.CustomerDetails.Name)
		details.CustomerEmail = nonEmpty(s.CustomerDetails.Email)
		details.BillingAddress = s.CustomerDetails.Address.toAddress()
	}
	if details.CustomerEmail == nil {
		details.CustomerEmail = nonEmpty(s.CustomerEmail)
	}

	shipping := s.ShippingDetails
	if s.CollectedInformation != nil && s.CollectedInformation.ShippingDetails != nil {
		shipping = s.CollectedInformation.ShippingDetails
	}
	if shipping != nil {
		details.ShippingAddress = shipping.Address.toAddress()
	}
	return details, nil
}

// paymentIntentID accepts both the expanded object and the bare id form.
func paymentIntentID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
