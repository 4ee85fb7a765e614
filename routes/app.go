package routes

import (
	"context"
	"errors"
	"log/slog"

	"github.com/acostajs/vanier-custom-keyboard-collective/config"
	"github.com/acostajs/vanier-custom-keyboard-collective/controllers"
	"github.com/acostajs/vanier-custom-keyboard-collective/libs"
	"github.com/acostajs/vanier-custom-keyboard-collective/middleware"
	"github.com/acostajs/vanier-custom-keyboard-collective/repositories"
	"github.com/acostajs/vanier-custom-keyboard-collective/services"
	"github.com/acostajs/vanier-custom-keyboard-collective/utils"
	"github.com/gin-gonic/gin"
)

// Build connects the backing stores, wires every layer and returns the engine
// together with a cleanup func that closes the connections.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gin.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	pool, err := config.ConnectDB(ctx, cfg.DSN(), cfg.Serverless)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connected")

	if err := config.RunMigrations(cfg.DSN(), cfg.MigrationsPath, logger); err != nil {
		pool.Close()
		return nil, nil, err
	}

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("redis connected")

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
		pool.Close()
		logger.Info("connections closed")
	}

	metrics := libs.NewMetrics()
	sessions := libs.NewSessionStore(redisClient, cfg.SessionTTL)
	gateway := libs.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	var images services.ImageResolver
	if urls, err := libs.NewImageURLs(cfg.CloudinaryURL, cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret); err != nil {
		logger.Warn("checkout line items will not carry images", "error", err)
	} else {
		images = urls
	}

	var notifier services.OrderNotifier
	if mailer, err := libs.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom); err != nil {
		if !errors.Is(err, libs.ErrMailerNotConfigured) {
			cleanup()
			return nil, nil, err
		}
		logger.Warn("order confirmation emails disabled", "error", err)
	} else {
		notifier = mailer
	}

	productRepo := repositories.NewProductRepository(pool)
	accountRepo := repositories.NewAccountRepository(pool)
	cartRepo := repositories.NewCartRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)

	carts := services.NewCartProvider(sessions, productRepo, cartRepo, logger, metrics)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, logger)
	checkoutService := services.NewCheckoutService(orderRepo, gateway, images, services.CheckoutConfig{
		Currency:          cfg.CheckoutCurrency,
		SiteURL:           cfg.SiteURL,
		ShippingCountries: cfg.ShippingCountries,
	}, logger, metrics)
	fulfillment := services.NewFulfillmentService(orderRepo, accountRepo, notifier, logger, metrics)
	authService := services.NewAuthService(accountRepo, cartRepo, carts, tokens, logger)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	SetupRoutes(router, Controllers{
		Auth:     controllers.NewAuthController(authService),
		Product:  controllers.NewProductController(productService),
		Cart:     controllers.NewCartController(carts, productService),
		Checkout: controllers.NewCheckoutController(carts, checkoutService, orderService, logger),
		Webhook:  controllers.NewWebhookController(gateway, fulfillment, logger),
		Order:    controllers.NewOrderController(orderService),
	}, Options{
		Tokens: tokens,
		Session: middleware.SessionOptions{
			CookieName: cfg.SessionCookieName,
			TTL:        cfg.SessionTTL,
			Secure:     cfg.CookieSecure,
		},
		OriginURL:      cfg.OriginURL,
		MetricsHandler: metrics.Handler(),
		HealthChecks: map[string]Pinger{
			"database": pool,
			"redis":    sessions,
		},
	})

	return router, cleanup, nil
}
