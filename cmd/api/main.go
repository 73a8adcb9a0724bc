package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/voxlane/voxlane-backend/internal/config"
	"github.com/voxlane/voxlane-backend/internal/handler"
	"github.com/voxlane/voxlane-backend/internal/middleware"
	"github.com/voxlane/voxlane-backend/internal/repository"
	"github.com/voxlane/voxlane-backend/internal/service"
	"github.com/voxlane/voxlane-backend/pkg/database"
	"github.com/voxlane/voxlane-backend/pkg/email"
	jwtPkg "github.com/voxlane/voxlane-backend/pkg/jwt"
	"github.com/voxlane/voxlane-backend/pkg/payment"
	"github.com/voxlane/voxlane-backend/pkg/utils"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("database init failed", zap.Error(err))
	}

	// Repositories
	purchaseRepo := repository.NewPurchaseRepository(db)

	// Stripe gateway
	stripeClient := payment.NewClient(payment.ClientConfig{
		SecretKey: cfg.Stripe.SecretKey,
		Logger:    zapLogger,
	})

	// Receipt email is optional; skipped when no provider key is set.
	var mailer service.ReceiptMailer
	if cfg.Email.APIKey != "" {
		mailer = email.NewEmailService(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName, zapLogger)
	}

	// Services
	paymentService := service.NewPaymentService(stripeClient, purchaseRepo, mailer, zapLogger)

	validator := utils.NewValidator()
	tokens := jwtPkg.NewManager(cfg.JWTSecret)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, validator, cfg.Stripe.WebhookSecret, zapLogger)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowMethods:     "GET, POST",
		AllowCredentials: true,
	}))
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public billing routes. Registered for all methods: the handlers
	// answer 405 themselves, matching the function-per-endpoint contract.
	app.Get("/plans", paymentHandler.GetPlans)
	app.All("/create-checkout-session", paymentHandler.CreateCheckoutSession)
	app.All("/checkout-session", paymentHandler.GetCheckoutSession)
	app.All("/stripe-webhook", paymentHandler.HandleStripeWebhook)

	// Dashboard routes (protected)
	app.Get("/purchases", middleware.AuthMiddleware(tokens), paymentHandler.GetPurchaseHistory)

	zapLogger.Info("starting server", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
