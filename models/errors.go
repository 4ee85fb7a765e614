package models

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so callers can branch with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrExternalService  = errors.New("external service error")
)

var (
	ErrInvalidStatus     = fmt.Errorf("%w: invalid order status", ErrValidation)
	ErrIllegalTransition = fmt.Errorf("%w: illegal order status transition", ErrValidation)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrOrderNotPending   = fmt.Errorf("%w: order is not pending", ErrValidation)

	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)

	ErrDuplicateCartLine  = errors.New("cart line already exists")
	ErrDuplicatePaymentID = fmt.Errorf("%w: payment id already assigned to another order", ErrValidation)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrNothingToCheckout = errors.New("cart is empty, nothing to check out")
	ErrPaymentProvider   = fmt.Errorf("%w: payment processor request failed", ErrExternalService)
	ErrMalformedEvent    = fmt.Errorf("%w: malformed webhook payload", ErrValidation)
)
