package libs

import (
	"testing"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	return sp.Payload, sp.Header
}

func TestVerifyEventCheckoutCompleted(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	body, header := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"client_reference_id": " 42 ",
			"payment_intent": "pi_123",
			"customer_details": {
				"name": "Ada Lovelace",
				"email": "ada@example.com",
				"address": {"line1": "1 Main St", "line2": "", "city": "Montreal", "postal_code": "H2X", "country": "CA"}
			},
			"collected_information": {"shipping_details": {
				"name": "Ada",
				"address": {"line1": "2 Ship Rd", "city": "Laval", "country": "CA"}
			}},
			"shipping_details": {"address": {"line1": "legacy"}}
		}}
	}`)

	event, err := gw.VerifyEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, models.EventCheckoutCompleted, event.Type)

	s := event.Session
	require.NotNil(t, s)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "42", s.ClientReference)
	assert.Equal(t, "pi_123", s.PaymentIntentID)
	assert.Equal(t, "Ada Lovelace", *s.CustomerName)
	assert.Equal(t, "ada@example.com", *s.CustomerEmail)
	assert.Equal(t, "Montreal", *s.BillingAddress.City)
	assert.Nil(t, s.BillingAddress.Line2)
	assert.Equal(t, "2 Ship Rd", *s.ShippingAddress.Line1)
	assert.Nil(t, s.ShippingAddress.PostalCode)
}

func TestVerifyEventExpandedPaymentIntentAndEmailFallback(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	body, header := signed(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "checkout.session.async_payment_succeeded",
		"data": {"object": {
			"id": "cs_test_2",
			"client_reference_id": "7",
			"payment_intent": {"id": "pi_obj", "object": "payment_intent"},
			"customer_email": "guest@example.com",
			"shipping_details": {"address": {"line1": "legacy st"}}
		}}
	}`)

	event, err := gw.VerifyEvent(body, header)
	require.NoError(t, err)
	require.NotNil(t, event.Session)
	assert.Equal(t, "pi_obj", event.Session.PaymentIntentID)
	assert.Equal(t, "guest@example.com", *event.Session.CustomerEmail)
	assert.Nil(t, event.Session.CustomerName)
	assert.Equal(t, "legacy st", *event.Session.ShippingAddress.Line1)
}

func TestVerifyEventPaymentIntentFailed(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	body, header := signed(t, `{
		"id": "evt_3",
		"object": "event",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_failed", "object": "payment_intent"}}
	}`)

	event, err := gw.VerifyEvent(body, header)
	require.NoError(t, err)
	assert.Nil(t, event.Session)
	require.NotNil(t, event.PaymentIntent)
	assert.Equal(t, "pi_failed", event.PaymentIntent.ID)
}

func TestVerifyEventUnknownTypePassesThrough(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	body, header := signed(t, `{"id": "evt_4", "object": "event", "type": "customer.created", "data": {"object": {"id": "cus_1"}}}`)

	event, err := gw.VerifyEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", event.Type)
	assert.Nil(t, event.Session)
	assert.Nil(t, event.PaymentIntent)
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	gw := NewStripeGateway("sk_test", "whsec_other")
	body, header := signed(t, `{"id": "evt_5", "object": "event", "type": "checkout.session.completed", "data": {"object": {}}}`)

	_, err := gw.VerifyEvent(body, header)
	assert.ErrorIs(t, err, models.ErrSignatureInvalid)

	_, err = gw.VerifyEvent(body, "")
	assert.ErrorIs(t, err, models.ErrSignatureInvalid)
}

func TestVerifyEventRejectsTamperedBody(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	_, header := signed(t, `{"id": "evt_6", "object": "event", "type": "checkout.session.completed", "data": {"object": {}}}`)

	_, err := gw.VerifyEvent([]byte(`{"id": "evt_6", "object": "event", "type": "checkout.session.expired", "data": {"object": {}}}`), header)
	assert.ErrorIs(t, err, models.ErrSignatureInvalid)
}

func TestVerifyEventMalformedPaymentIntent(t *testing.T) {
	gw := NewStripeGateway("sk_test", testWebhookSecret)
	body, header := signed(t, `{"id": "evt_7", "object": "event", "type": "payment_intent.canceled", "data": {"object": {"object": "payment_intent"}}}`)

	_, err := gw.VerifyEvent(body, header)
	assert.ErrorIs(t, err, models.ErrMalformedEvent)
}
