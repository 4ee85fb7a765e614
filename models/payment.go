package models

// Processor event types the fulfillment pipeline reacts to.
const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired               = "checkout.session.expired"
	EventPaymentIntentFailed           = "payment_intent.payment_failed"
	EventPaymentIntentCanceled         = "payment_intent.canceled"
)

type CheckoutLineItem struct {
	Name            string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int
}

// CheckoutSessionRequest is what the storefront asks the processor to host.
type CheckoutSessionRequest struct {
	ClientReference          string
	LineItems                []CheckoutLineItem
	Currency                 string
	SuccessURL               string
	CancelURL                string
	CustomerEmail            string
	BillingAddressRequired   bool
	CollectShipping          bool
	AllowedShippingCountries []string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionDetails is the subset of a processor checkout session read at fulfillment.
type CheckoutSessionDetails struct {
	ID              string
	ClientReference string
	PaymentIntentID string
	CustomerName    *string
	CustomerEmail   *string
	BillingAddress  Address
	ShippingAddress Address
}

type PaymentIntentDetails struct {
	ID string
}

// PaymentEvent is a verified webhook event. Exactly one of Session or PaymentIntent is set
// for the event types above; both are nil for types the pipeline ignores.
type PaymentEvent struct {
	ID            string
	Type          string
	Session       *CheckoutSessionDetails
	PaymentIntent *PaymentIntentDetails
}
