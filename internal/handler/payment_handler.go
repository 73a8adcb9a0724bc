package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"github.com/voxlane/voxlane-backend/internal/models"
	"github.com/voxlane/voxlane-backend/internal/service"
	"github.com/voxlane/voxlane-backend/pkg/payment"
	"github.com/voxlane/voxlane-backend/pkg/utils"
	"github.com/voxlane/voxlane-backend/pkg/webhook"
)

// Shown alongside checkout-creation failures regardless of cause, so the
// response body never varies with the error content.
const checkoutHint = "If this persists, verify STRIPE_SECRET_KEY is configured for this environment."

type PaymentHandler struct {
	paymentService *service.PaymentService
	validator      *utils.Validator
	webhookSecret  string
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, validator *utils.Validator, webhookSecret string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator,
		webhookSecret:  webhookSecret,
		logger:         logger,
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "method not allowed",
		})
	}

	var req models.CreateCheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "plan and sessionId are required",
		})
	}

	resp, err := h.paymentService.CreateCheckoutSession(c.Context(), req, requestOrigin(c))
	if err != nil {
		if errors.Is(err, service.ErrEnterprisePlan) || errors.Is(err, service.ErrUnknownPlan) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		status := fiber.StatusInternalServerError
		message := err.Error()
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			status = apiErr.Status
		}
		h.logger.Error("checkout session creation failed", zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"error": message,
			"hint":  checkoutHint,
		})
	}

	return c.JSON(resp)
}

func (h *PaymentHandler) GetCheckoutSession(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "method not allowed",
		})
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	resp, err := h.paymentService.GetCheckoutSession(c.Context(), sessionID)
	if err != nil {
		status := fiber.StatusInternalServerError
		var apiErr *payment.APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			status = apiErr.Status
		}
		h.logger.Error("checkout session lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(resp)
}

func (h *PaymentHandler) HandleStripeWebhook(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "method not allowed",
		})
	}

	if h.webhookSecret == "" {
		h.logger.Error("STRIPE_WEBHOOK_SECRET is not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "webhook secret not configured",
		})
	}

	// Signature verification needs the body bytes exactly as received.
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	if err := webhook.Verify(payload, signatureHeader, h.webhookSecret); err != nil {
		h.logger.Warn("webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid signature",
		})
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("webhook payload parse failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}

	if err := h.paymentService.HandleWebhookEvent(&event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "webhook processing failed",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}

func (h *PaymentHandler) GetPlans(c *fiber.Ctx) error {
	return c.JSON(models.Plans())
}

func (h *PaymentHandler) GetPurchaseHistory(c *fiber.Ctx) error {
	purchases, err := h.paymentService.GetRecentPurchases()
	if err != nil {
		h.logger.Error("purchase history lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load purchases",
		})
	}

	return c.JSON(purchases)
}

// requestOrigin rebuilds the scheme+host the browser used, honoring the
// proxy headers the serverless host sets, so redirect URLs stay
// environment-portable.
func requestOrigin(c *fiber.Ctx) string {
	proto := c.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	host := c.Get("X-Forwarded-Host")
	if host == "" {
		host = c.Hostname()
	}
	return proto + "://" + host
}
