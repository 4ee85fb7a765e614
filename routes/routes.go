package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/acostajs/vanier-custom-keyboard-collective/controllers"
	_ "github.com/acostajs/vanier-custom-keyboard-collective/docs"
	"github.com/acostajs/vanier-custom-keyboard-collective/handler"
	"github.com/acostajs/vanier-custom-keyboard-collective/middleware"
	"github.com/acostajs/vanier-custom-keyboard-collective/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Controllers struct {
	Auth     *controllers.AuthController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Webhook  *controllers.WebhookController
	Order    *controllers.OrderController
}

type Options struct {
	Tokens         *utils.TokenIssuer
	Session        middleware.SessionOptions
	OriginURL      string
	MetricsHandler http.Handler
	HealthChecks   map[string]Pinger
}

func SetupRoutes(router *gin.Engine, ctrl Controllers, opts Options) {
	// Processor callbacks are server to server: no session, token or CORS.
	// Registered ahead of the CORS middleware so it never wraps them.
	router.POST("/cart/webhook", ctrl.Webhook.Handle)

	router.Use(middleware.CORSMiddleware(opts.OriginURL))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/", gin.WrapF(handler.Handler))
	router.GET("/health", health(opts.HealthChecks))
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	shop := router.Group("/")
	shop.Use(middleware.Session(opts.Session), middleware.OptionalAuth(opts.Tokens))
	{
		shop.POST("/auth/register", ctrl.Auth.Register)
		shop.POST("/auth/login", ctrl.Auth.Login)

		shop.GET("/categories", ctrl.Product.GetAllCategories)
		shop.GET("/products", ctrl.Product.GetAllProducts)
		shop.GET("/products/:id", ctrl.Product.GetProductByID)

		shop.GET("/cart", ctrl.Cart.Detail)
		shop.GET("/cart/count", ctrl.Cart.Count)
		shop.POST("/cart/clear", ctrl.Cart.Clear)
		shop.POST("/cart/checkout/session", ctrl.Checkout.CreateSession)
		shop.GET("/cart/checkout/success", ctrl.Checkout.Success)
		shop.GET("/cart/checkout/cancel", ctrl.Checkout.Cancel)
		shop.POST("/cart/:product_id/add", ctrl.Cart.Add)
		shop.POST("/cart/:product_id/update", ctrl.Cart.Update)
		shop.POST("/cart/:product_id/remove", ctrl.Cart.Remove)
	}

	auth := router.Group("/")
	auth.Use(middleware.RequireAuth(opts.Tokens))
	{
		auth.GET("/auth/profile", ctrl.Auth.GetProfile)
		auth.GET("/orders", ctrl.Order.History)
		auth.GET("/orders/:id", ctrl.Order.Detail)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.RequireAuth(opts.Tokens), middleware.AdminOnly())
	{
		admin.GET("/orders/:id", ctrl.Order.GetOrderByID)
		admin.PATCH("/orders/:id/status", ctrl.Order.UpdateOrderStatus)
	}
}

func health(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := gin.H{}
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		result["status"] = http.StatusText(status)
		c.JSON(status, result)
	}
}
