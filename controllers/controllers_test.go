package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/acostajs/vanier-custom-keyboard-collective/libs"
	"github.com/acostajs/vanier-custom-keyboard-collective/middleware"
	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/repositories"
	"github.com/acostajs/vanier-custom-keyboard-collective/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRespondErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrIllegalTransition, http.StatusConflict},
		{models.ErrInvalidCredentials, http.StatusUnauthorized},
		{models.ErrInvalidQuantity, http.StatusBadRequest},
		{fmt.Errorf("order 7: %w", models.ErrDuplicatePaymentID), http.StatusBadRequest},
		{fmt.Errorf("lookup: %w", models.ErrProductNotFound), http.StatusNotFound},
		{models.ErrSignatureInvalid, http.StatusBadRequest},
		{models.ErrPaymentProvider, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			respondError(c, tt.err)
			assert.Equal(t, tt.want, rec.Code)

			env := decode(t, rec)
			assert.False(t, env.Success)
			if tt.want == http.StatusInternalServerError {
				assert.Empty(t, env.Error)
			}
		})
	}
}

func TestBuildPageLinks(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "http://shop.test/orders?page=2&limit=5", nil)

	page := buildPage(c, "ok", []int{}, 2, 5, 11)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.Contains(t, page.Links.Prev, "page=1")
	assert.Contains(t, page.Links.Next, "page=3")
	assert.Contains(t, page.Links.Self, "http://shop.test/orders?")
}

// webhook

type stubVerifier struct {
	event *models.PaymentEvent
	err   error
	got   []byte
}

func (s *stubVerifier) VerifyEvent(payload []byte, signature string) (*models.PaymentEvent, error) {
	s.got = payload
	if signature == "" {
		return nil, models.ErrSignatureInvalid
	}
	return s.event, s.err
}

type stubHandler struct {
	outcome services.Outcome
	err     error
	calls   int
}

func (s *stubHandler) HandleEvent(context.Context, *models.PaymentEvent) (services.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

func postWebhook(ctrl *WebhookController, body, signature string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/cart/webhook", ctrl.Handle)
	req := httptest.NewRequest(http.MethodPost, "/cart/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookStatuses(t *testing.T) {
	event := &models.PaymentEvent{ID: "evt_1", Type: models.EventCheckoutCompleted}

	t.Run("bad signature", func(t *testing.T) {
		handler := &stubHandler{}
		rec := postWebhook(NewWebhookController(&stubVerifier{event: event}, handler, discardLogger()), `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid signature", decode(t, rec).Message)
		assert.Zero(t, handler.calls)
	})

	t.Run("malformed payload", func(t *testing.T) {
		rec := postWebhook(NewWebhookController(&stubVerifier{err: models.ErrMalformedEvent}, &stubHandler{}, discardLogger()), `{`, "t=1,v1=x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid payload", decode(t, rec).Message)
	})

	t.Run("applied", func(t *testing.T) {
		verifier := &stubVerifier{event: event}
		handler := &stubHandler{outcome: services.OutcomeFulfilled}
		rec := postWebhook(NewWebhookController(verifier, handler, discardLogger()), `{"id":"evt_1"}`, "t=1,v1=x")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"id":"evt_1"}`, string(verifier.got))
		assert.JSONEq(t, `{"event_id":"evt_1","outcome":"fulfilled"}`, string(decode(t, rec).Data))
	})

	t.Run("order not found", func(t *testing.T) {
		handler := &stubHandler{outcome: services.OutcomeOrderMissing, err: models.ErrOrderNotFound}
		rec := postWebhook(NewWebhookController(&stubVerifier{event: event}, handler, discardLogger()), `{}`, "t=1,v1=x")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("duplicate payment id is terminal", func(t *testing.T) {
		handler := &stubHandler{err: fmt.Errorf("order 7: %w", models.ErrDuplicatePaymentID)}
		rec := postWebhook(NewWebhookController(&stubVerifier{event: event}, handler, discardLogger()), `{}`, "t=1,v1=x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure asks for redelivery", func(t *testing.T) {
		handler := &stubHandler{err: errors.New("connection refused")}
		rec := postWebhook(NewWebhookController(&stubVerifier{event: event}, handler, discardLogger()), `{}`, "t=1,v1=x")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		body := strings.Repeat("a", maxWebhookBytes+1)
		rec := postWebhook(NewWebhookController(&stubVerifier{event: event}, &stubHandler{}, discardLogger()), body, "t=1,v1=x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// cart and checkout

type stubProducts struct {
	products map[int64]*models.Product
}

func (s *stubProducts) FindByID(_ context.Context, id int64) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, models.ErrProductNotFound
}

func (s *stubProducts) FindByIDs(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	out := map[int64]*models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubProducts) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return s.FindByID(ctx, id)
}

// stubOrders implements only what the checkout and order handlers touch.
type stubOrders struct {
	services.OrderStore
	orders map[int64]*models.Order
}

func (s *stubOrders) FindByID(_ context.Context, id int64) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, models.ErrOrderNotFound
}

func (s *stubOrders) FindByCheckoutSessionID(_ context.Context, sid string) (*models.Order, error) {
	for _, o := range s.orders {
		if o.CheckoutSessionID != nil && *o.CheckoutSessionID == sid {
			return o, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (s *stubOrders) UpdateByID(_ context.Context, id int64, fn repositories.OrderMutation) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	work := *o
	if _, err := fn(&work); err != nil {
		return nil, err
	}
	s.orders[id] = &work
	return &work, nil
}

func newShop(t *testing.T) (*gin.Engine, *services.CartProvider, *stubOrders) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	products := &stubProducts{products: map[int64]*models.Product{
		1: {ID: 1, Name: "Gateron Yellow x70", PriceCents: 2999, Quantity: 10},
		2: {ID: 2, Name: "PBT Keycaps", PriceCents: 10000, Quantity: 3},
	}}
	carts := services.NewCartProvider(libs.NewSessionStore(client, time.Hour), products, nil, discardLogger(), nil)
	sid := "cs_done"
	orders := &stubOrders{orders: map[int64]*models.Order{
		1: {ID: 1, Status: models.OrderStatusPending, CheckoutSessionID: &sid},
	}}
	orderSvc := services.NewOrderService(orders, discardLogger())
	checkout := services.NewCheckoutService(orders, nil, nil, services.CheckoutConfig{Currency: "cad"}, discardLogger(), nil)

	cartCtrl := NewCartController(carts, products)
	checkoutCtrl := NewCheckoutController(carts, checkout, orderSvc, discardLogger())

	r := gin.New()
	shop := r.Group("/", middleware.Session(middleware.SessionOptions{CookieName: "kc_session", TTL: time.Hour}))
	shop.GET("/cart", cartCtrl.Detail)
	shop.GET("/cart/count", cartCtrl.Count)
	shop.POST("/cart/clear", cartCtrl.Clear)
	shop.POST("/cart/:product_id/add", cartCtrl.Add)
	shop.POST("/cart/:product_id/update", cartCtrl.Update)
	shop.POST("/cart/:product_id/remove", cartCtrl.Remove)
	shop.POST("/cart/checkout/session", checkoutCtrl.CreateSession)
	shop.GET("/cart/checkout/success", checkoutCtrl.Success)
	shop.GET("/cart/checkout/cancel", checkoutCtrl.Cancel)
	return r, carts, orders
}

type shopper struct {
	t      *testing.T
	router *gin.Engine
	sid    string
}

func (s *shopper) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.sid != "" {
		req.Header.Set(middleware.SessionIDHeader, s.sid)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.sid = rec.Header().Get(middleware.SessionIDHeader)
	return rec
}

func summaryOf(t *testing.T, rec *httptest.ResponseRecorder) models.CartSummary {
	t.Helper()
	var summary models.CartSummary
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summary))
	return summary
}

func TestCartEndpoints(t *testing.T) {
	router, _, _ := newShop(t)
	s := &shopper{t: t, router: router}

	rec := s.do(http.MethodPost, "/cart/1/add", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, summaryOf(t, rec).Count)

	rec = s.do(http.MethodPost, "/cart/1/add", `{"quantity": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := summaryOf(t, rec)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, int64(4*2999), summary.SubtotalCents)

	rec = s.do(http.MethodPost, "/cart/2/update", `{"quantity": 99}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4+3, summaryOf(t, rec).Count)

	rec = s.do(http.MethodGet, "/cart/count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 7}`, string(decode(t, rec).Data))

	rec = s.do(http.MethodPost, "/cart/1/remove", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, summaryOf(t, rec).Count)

	rec = s.do(http.MethodPost, "/cart/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, summaryOf(t, rec).Items)
}

func TestCartAddErrors(t *testing.T) {
	router, _, _ := newShop(t)
	s := &shopper{t: t, router: router}

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/cart/42/add", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/cart/abc/add", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/cart/1/add", `{"quantity": "many"}`).Code)
}

func TestCartIsPerSession(t *testing.T) {
	router, _, _ := newShop(t)
	a := &shopper{t: t, router: router}
	b := &shopper{t: t, router: router}

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/cart/1/add", "").Code)
	rec := b.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, summaryOf(t, rec).Count)
	assert.NotEqual(t, a.sid, b.sid)
}

func TestCheckoutEmptyCart(t *testing.T) {
	router, _, _ := newShop(t)
	s := &shopper{t: t, router: router}

	rec := s.do(http.MethodPost, "/cart/checkout/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cart is empty", decode(t, rec).Message)
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	router, carts, _ := newShop(t)
	s := &shopper{t: t, router: router}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/1/add", "").Code)

	rec := s.do(http.MethodGet, "/cart/checkout/success?session_id=cs_unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	count, err := carts.Session(s.sid).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec = s.do(http.MethodGet, "/cart/checkout/success?session_id=cs_done", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"order_number":"ORD-1"`)
	count, err = carts.Session(s.sid).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/cart/checkout/cancel", "").Code)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orders := &stubOrders{orders: map[int64]*models.Order{
		1: {ID: 1, Status: models.OrderStatusPending},
	}}
	ctrl := NewOrderController(services.NewOrderService(orders, discardLogger()))
	r := gin.New()
	r.PATCH("/admin/orders/:id/status", ctrl.UpdateOrderStatus)
	r.GET("/admin/orders/:id", ctrl.GetOrderByID)

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/admin/orders/1/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, patch(`{"status": "shipped"}`).Code)
	assert.Equal(t, http.StatusOK, patch(`{"status": "PAID"}`).Code)
	assert.Equal(t, models.OrderStatusPaid, orders.orders[1].Status)
	assert.Equal(t, http.StatusConflict, patch(`{"status": "cancelled"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{}`).Code)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
