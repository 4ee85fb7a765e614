package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/acostajs/vanier-custom-keyboard-collective/middleware"
	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/services"
	"github.com/gin-gonic/gin"
)

type ProductFinder interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

type CartController struct {
	carts    *services.CartProvider
	products ProductFinder
}

func NewCartController(carts *services.CartProvider, products ProductFinder) *CartController {
	return &CartController{carts: carts, products: products}
}

func (ctrl *CartController) shopperCart(c *gin.Context) (services.Cart, bool) {
	cart, err := ctrl.carts.ForShopper(middleware.CurrentShopper(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return cart, true
}

func (ctrl *CartController) respondSummary(c *gin.Context, cart services.Cart, message string) {
	summary, err := services.Summarize(c.Request.Context(), cart)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, message, summary)
}

// @Summary Get cart
// @Description Items, subtotal and count of the current shopper's cart
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response{data=models.CartSummary}
// @Router /cart [get]
func (ctrl *CartController) Detail(c *gin.Context) {
	cart, ok := ctrl.shopperCart(c)
	if !ok {
		return
	}
	ctrl.respondSummary(c, cart, "Cart retrieved successfully")
}

// @Summary Cart item count
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response
// @Router /cart/count [get]
func (ctrl *CartController) Count(c *gin.Context) {
	cart, ok := ctrl.shopperCart(c)
	if !ok {
		return
	}
	count, err := cart.Count(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Cart count retrieved", gin.H{"count": count})
}

// @Summary Add product to cart
// @Description Adds quantity (default 1) to the product's line
// @Tags Cart
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Param request body models.CartItemRequest false "Quantity"
// @Success 200 {object} models.Response{data=models.CartSummary}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/{product_id}/add [post]
func (ctrl *CartController) Add(c *gin.Context) {
	ctrl.add(c, false, "Product added to cart")
}

// @Summary Set product quantity
// @Description Replaces the product's line quantity
// @Tags Cart
// @Accept json
// @Produce json
// @Param product_id path int true "Product ID"
// @Param request body models.CartItemRequest false "Quantity"
// @Success 200 {object} models.Response{data=models.CartSummary}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/{product_id}/update [post]
func (ctrl *CartController) Update(c *gin.Context) {
	ctrl.add(c, true, "Cart updated")
}

func (ctrl *CartController) add(c *gin.Context, replace bool, message string) {
	productID, err := idParam(c, "product_id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.CartItemRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request", Error: err.Error()})
		return
	}

	product, err := ctrl.products.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	cart, ok := ctrl.shopperCart(c)
	if !ok {
		return
	}
	if err := cart.Add(c.Request.Context(), product, req.QuantityOrDefault(), replace); err != nil {
		respondError(c, err)
		return
	}
	ctrl.respondSummary(c, cart, message)
}

// @Summary Remove product from cart
// @Tags Cart
// @Produce json
// @Param product_id path int true "Product ID"
// @Success 200 {object} models.Response{data=models.CartSummary}
// @Router /cart/{product_id}/remove [post]
func (ctrl *CartController) Remove(c *gin.Context) {
	productID, err := idParam(c, "product_id")
	if err != nil {
		respondError(c, err)
		return
	}
	cart, ok := ctrl.shopperCart(c)
	if !ok {
		return
	}
	if err := cart.Remove(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	ctrl.respondSummary(c, cart, "Product removed from cart")
}

// @Summary Clear cart
// @Tags Cart
// @Produce json
// @Success 200 {object} models.Response{data=models.CartSummary}
// @Router /cart/clear [post]
func (ctrl *CartController) Clear(c *gin.Context) {
	cart, ok := ctrl.shopperCart(c)
	if !ok {
		return
	}
	if err := cart.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	ctrl.respondSummary(c, cart, "Cart cleared")
}
