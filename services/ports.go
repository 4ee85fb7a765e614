package services

import (
	"context"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/repositories"
)

type ProductLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
}

type CartStore interface {
	GetOrCreateCart(ctx context.Context, accountID int64) (int64, error)
	InsertLine(ctx context.Context, cartID, productID int64, qty int) error
	UpdateLineQuantity(ctx context.Context, cartID, productID int64, qty int, increment bool) error
	DeleteLine(ctx context.Context, cartID, productID int64) error
	DeleteLines(ctx context.Context, cartID int64) error
	Lines(ctx context.Context, cartID int64) ([]models.CartLine, error)
}

// SessionValues is a per-browser-session key/value store.
type SessionValues interface {
	Get(ctx context.Context, sessionID, field string, dst any) (bool, error)
	Set(ctx context.Context, sessionID, field string, value any) error
	Delete(ctx context.Context, sessionID, field string) error
}

type OrderStore interface {
	CreatePending(ctx context.Context, order *models.Order) error
	AttachCheckoutSession(ctx context.Context, orderID int64, sessionID string) error
	DeletePending(ctx context.Context, orderID int64) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListByAccount(ctx context.Context, accountID int64, page, limit int) ([]models.Order, int, error)
	UpdateByID(ctx context.Context, id int64, fn repositories.OrderMutation) (*models.Order, error)
	UpdateByPaymentID(ctx context.Context, paymentID string, fn repositories.OrderMutation) (*models.Order, error)
}

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
}

type PaymentProcessor interface {
	CreateCheckoutSession(ctx context.Context, req models.CheckoutSessionRequest) (*models.CheckoutSession, error)
}

type ImageResolver interface {
	ProductImageURL(publicID string) (string, error)
}

type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// Recorder receives business counters. libs.Metrics implements it.
type Recorder interface {
	ObserveWebhook(eventType, outcome string)
	ObserveCheckout(result string)
	ObserveMerge(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveWebhook(string, string) {}
func (nopRecorder) ObserveCheckout(string)        {}
func (nopRecorder) ObserveMerge(string)           {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
