package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"github.com/voxlane/voxlane-backend/internal/models"
	"github.com/voxlane/voxlane-backend/pkg/payment"
)

var (
	ErrEnterprisePlan = errors.New("enterprise plans are handled by our sales team - book a demo at /demo instead of self-serve checkout")
	ErrUnknownPlan    = errors.New("unknown plan")
)

// CheckoutGateway is the payment-provider boundary. Satisfied by
// *payment.Client; mocked in tests.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, params payment.CheckoutSessionParams) (*payment.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSessionStatus, error)
}

type PurchaseStore interface {
	RecordOnce(purchase *models.Purchase) (bool, error)
	Recent(limit int) ([]models.Purchase, error)
}

type ReceiptMailer interface {
	SendPaymentReceipt(to, businessName, planName string, amountCents int64) error
}

type PaymentService struct {
	gateway   CheckoutGateway
	purchases PurchaseStore
	mailer    ReceiptMailer
	logger    *zap.Logger
}

// NewPaymentService wires the checkout flow. mailer may be nil when no
// email provider is configured.
func NewPaymentService(gateway CheckoutGateway, purchases PurchaseStore, mailer ReceiptMailer, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		purchases: purchases,
		mailer:    mailer,
		logger:    logger,
	}
}

// CreateCheckoutSession validates the onboarding request against the
// plan catalog and asks the provider for a hosted checkout page. origin
// is the scheme+host the browser reached us on; the success URL keeps
// the provider's {CHECKOUT_SESSION_ID} placeholder literal so it can be
// substituted after checkout completes.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest, origin string) (*models.CheckoutSessionResponse, error) {
	if req.Plan == "enterprise" {
		return nil, ErrEnterprisePlan
	}

	plan, ok := models.PlanCatalog[req.Plan]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, req.Plan)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionParams{
		SuccessURL:        origin + "/onboarding/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         origin + "/pricing",
		ClientReferenceID: req.SessionID,
		CustomerEmail:     req.CustomerEmail,
		Metadata: map[string]string{
			"onboarding_session_id": req.SessionID,
			"plan":                  req.Plan,
			"business_name":         req.BusinessName,
		},
		PlanName:        plan.Name,
		UnitAmountCents: plan.AmountCents,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("created checkout session",
		zap.String("session_id", session.ID),
		zap.String("plan", req.Plan),
		zap.String("onboarding_id", req.SessionID),
	)

	return &models.CheckoutSessionResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	}, nil
}

// GetCheckoutSession reports whether the session has been paid for. The
// provider uses payment_status while the session is open and status once
// it completes, so both fields are checked.
func (s *PaymentService) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutStatusResponse, error) {
	status, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reported := status.PaymentStatus
	if reported == "" {
		reported = status.Status
	}

	resolvedID := status.ID
	if resolvedID == "" {
		resolvedID = sessionID
	}

	return &models.CheckoutStatusResponse{
		Paid:          status.Paid(),
		Status:        reported,
		SessionID:     resolvedID,
		CustomerEmail: status.CustomerEmail,
	}, nil
}

// HandleWebhookEvent processes an already-verified provider event. A
// completed checkout is recorded idempotently, keyed on the event id;
// redeliveries insert nothing and are acknowledged again. Any returned
// error maps to a 500 so the provider redelivers.
func (s *PaymentService) HandleWebhookEvent(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}

		purchase := &models.Purchase{
			EventID:         event.ID,
			StripeSessionID: session.ID,
			OnboardingID:    session.ClientReferenceID,
			PlanKey:         session.Metadata["plan"],
			BusinessName:    session.Metadata["business_name"],
			CustomerEmail:   sessionEmail(&session),
			AmountCents:     session.AmountTotal,
			Status:          models.PurchaseStatusCompleted,
		}

		inserted, err := s.purchases.RecordOnce(purchase)
		if err != nil {
			return err
		}
		if !inserted {
			s.logger.Info("duplicate webhook delivery, already recorded",
				zap.String("event_id", event.ID),
				zap.String("stripe_session_id", session.ID),
			)
			return nil
		}

		s.logger.Info("recorded completed checkout",
			zap.String("event_id", event.ID),
			zap.String("stripe_session_id", session.ID),
			zap.String("onboarding_id", purchase.OnboardingID),
			zap.String("plan", purchase.PlanKey),
		)

		if s.mailer != nil && purchase.CustomerEmail != "" {
			planName := purchase.PlanKey
			if plan, ok := models.PlanCatalog[purchase.PlanKey]; ok {
				planName = plan.Name
			}
			// Best effort: the payment already happened, a failed
			// receipt must not make the provider redeliver.
			if err := s.mailer.SendPaymentReceipt(purchase.CustomerEmail, purchase.BusinessName, planName, purchase.AmountCents); err != nil {
				s.logger.Warn("receipt email failed", zap.Error(err))
			}
		}
	}

	return nil
}

func (s *PaymentService) GetRecentPurchases() ([]models.Purchase, error) {
	return s.purchases.Recent(50)
}

func sessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}
