package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/acostajs/vanier-custom-keyboard-collective/middleware"
	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/services"
	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	carts    *services.CartProvider
	checkout *services.CheckoutService
	orders   *services.OrderService
	logger   *slog.Logger
}

func NewCheckoutController(carts *services.CartProvider, checkout *services.CheckoutService, orders *services.OrderService, logger *slog.Logger) *CheckoutController {
	return &CheckoutController{carts: carts, checkout: checkout, orders: orders, logger: logger}
}

// @Summary Create checkout session
// @Description Snapshots the cart into a pending order and returns the hosted checkout URL
// @Tags Checkout
// @Produce json
// @Success 201 {object} models.Response{data=models.CheckoutSessionResponse}
// @Success 200 {object} models.Response "cart is empty"
// @Failure 502 {object} models.ErrorResponse
// @Router /cart/checkout/session [post]
func (ctrl *CheckoutController) CreateSession(c *gin.Context) {
	shopper := middleware.CurrentShopper(c)
	cart, err := ctrl.carts.ForShopper(shopper)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := ctrl.checkout.CreateSession(c.Request.Context(), cart, shopper)
	if errors.Is(err, models.ErrNothingToCheckout) {
		respondOK(c, http.StatusOK, "cart is empty", nil)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Checkout session created", models.CheckoutSessionResponse{
		OrderID:     result.Order.ID,
		CheckoutURL: result.Session.URL,
	})
}

// @Summary Checkout success
// @Description Confirms the order behind a checkout session and clears the shopper's cart
// @Tags Checkout
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/checkout/success [get]
func (ctrl *CheckoutController) Success(c *gin.Context) {
	order, err := ctrl.orders.FindByCheckoutSession(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	shopper := middleware.CurrentShopper(c)
	if cart, err := ctrl.carts.ForShopper(shopper); err == nil {
		if err := cart.Clear(c.Request.Context()); err != nil {
			ctrl.logger.Warn("cart not cleared after checkout", "order_id", order.ID, "session_id", shopper.SessionID, "error", err)
		}
	}

	respondOK(c, http.StatusOK, "Thank you for your order", gin.H{
		"order_number": order.Number(),
		"order":        order,
	})
}

// @Summary Checkout cancelled
// @Tags Checkout
// @Produce json
// @Success 200 {object} models.Response
// @Router /cart/checkout/cancel [get]
func (ctrl *CheckoutController) Cancel(c *gin.Context) {
	respondOK(c, http.StatusOK, "Checkout cancelled, your cart has been kept", nil)
}
