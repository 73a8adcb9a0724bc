package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"

	"github.com/voxlane/voxlane-backend/internal/models"
	"github.com/voxlane/voxlane-backend/internal/service"
	"github.com/voxlane/voxlane-backend/pkg/payment"
)

type fakeGateway struct {
	lastCreateParams payment.CheckoutSessionParams
	createResult     *payment.CheckoutSession
	createErr        error
	getResult        *payment.CheckoutSessionStatus
	getErr           error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, params payment.CheckoutSessionParams) (*payment.CheckoutSession, error) {
	f.lastCreateParams = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeGateway) GetCheckoutSession(_ context.Context, _ string) (*payment.CheckoutSessionStatus, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResult, nil
}

type fakeStore struct {
	recorded  []*models.Purchase
	duplicate bool
	recordErr error
}

func (f *fakeStore) RecordOnce(purchase *models.Purchase) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	f.recorded = append(f.recorded, purchase)
	return !f.duplicate, nil
}

func (f *fakeStore) Recent(limit int) ([]models.Purchase, error) {
	out := make([]models.Purchase, 0, len(f.recorded))
	for _, p := range f.recorded {
		out = append(out, *p)
	}
	return out, nil
}

type fakeMailer struct {
	sent    int
	sendErr error
}

func (f *fakeMailer) SendPaymentReceipt(to, businessName, planName string, amountCents int64) error {
	f.sent++
	return f.sendErr
}

func newService(gateway *fakeGateway, store *fakeStore, mailer service.ReceiptMailer) *service.PaymentService {
	return service.NewPaymentService(gateway, store, mailer, zap.NewNop())
}

func TestCreateCheckoutSessionAllCatalogPlans(t *testing.T) {
	for key, plan := range models.PlanCatalog {
		t.Run(key, func(t *testing.T) {
			gateway := &fakeGateway{createResult: &payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}}
			svc := newService(gateway, &fakeStore{}, nil)

			resp, err := svc.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{
				Plan:      key,
				SessionID: "ob_123",
			}, "https://app.voxlane.ai")
			require.NoError(t, err)
			assert.Equal(t, "https://pay.example/cs_1", resp.CheckoutURL)
			assert.Equal(t, "cs_1", resp.SessionID)

			params := gateway.lastCreateParams
			assert.Equal(t, plan.Name, params.PlanName)
			assert.Equal(t, plan.AmountCents, params.UnitAmountCents)
			assert.Equal(t, "ob_123", params.ClientReferenceID)
			assert.Equal(t, "https://app.voxlane.ai/onboarding/success?session_id={CHECKOUT_SESSION_ID}", params.SuccessURL)
			assert.Equal(t, "https://app.voxlane.ai/pricing", params.CancelURL)
			assert.Equal(t, key, params.Metadata["plan"])
			assert.Equal(t, "ob_123", params.Metadata["onboarding_session_id"])
		})
	}
}

func TestCreateCheckoutSessionRejectsEnterprise(t *testing.T) {
	svc := newService(&fakeGateway{}, &fakeStore{}, nil)

	_, err := svc.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{
		Plan:          "enterprise",
		SessionID:     "ob_123",
		CustomerEmail: "ceo@example.com",
		BusinessName:  "Big Corp",
	}, "https://app.voxlane.ai")
	assert.ErrorIs(t, err, service.ErrEnterprisePlan)
}

func TestCreateCheckoutSessionRejectsUnknownPlan(t *testing.T) {
	svc := newService(&fakeGateway{}, &fakeStore{}, nil)

	_, err := svc.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{
		Plan:      "mega",
		SessionID: "ob_123",
	}, "https://app.voxlane.ai")
	assert.ErrorIs(t, err, service.ErrUnknownPlan)
}

func TestCreateCheckoutSessionPropagatesGatewayError(t *testing.T) {
	gatewayErr := &payment.APIError{Message: "No such price", Status: 400}
	svc := newService(&fakeGateway{createErr: gatewayErr}, &fakeStore{}, nil)

	_, err := svc.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{
		Plan:      "growth",
		SessionID: "ob_123",
	}, "https://app.voxlane.ai")

	var apiErr *payment.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestGetCheckoutSessionPaidDetermination(t *testing.T) {
	cases := []struct {
		name       string
		status     *payment.CheckoutSessionStatus
		wantPaid   bool
		wantStatus string
	}{
		{
			name:       "payment_status paid",
			status:     &payment.CheckoutSessionStatus{ID: "cs_1", PaymentStatus: "paid"},
			wantPaid:   true,
			wantStatus: "paid",
		},
		{
			name:       "status complete without payment_status",
			status:     &payment.CheckoutSessionStatus{ID: "cs_1", Status: "complete"},
			wantPaid:   true,
			wantStatus: "complete",
		},
		{
			name:       "unpaid",
			status:     &payment.CheckoutSessionStatus{ID: "cs_1", PaymentStatus: "unpaid", Status: "open"},
			wantPaid:   false,
			wantStatus: "unpaid",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(&fakeGateway{getResult: tc.status}, &fakeStore{}, nil)

			resp, err := svc.GetCheckoutSession(context.Background(), "cs_1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantPaid, resp.Paid)
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, "cs_1", resp.SessionID)
		})
	}
}

func completedEvent(t *testing.T, eventID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":                  "cs_1",
		"client_reference_id": "ob_123",
		"amount_total":        14900,
		"customer_details":    map[string]any{"email": "owner@example.com"},
		"metadata": map[string]string{
			"plan":          "growth",
			"business_name": "Ana's Bakery",
		},
	})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   eventID,
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleWebhookEventRecordsPurchase(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	svc := newService(&fakeGateway{}, store, mailer)

	require.NoError(t, svc.HandleWebhookEvent(completedEvent(t, "evt_1")))

	require.Len(t, store.recorded, 1)
	purchase := store.recorded[0]
	assert.Equal(t, "evt_1", purchase.EventID)
	assert.Equal(t, "cs_1", purchase.StripeSessionID)
	assert.Equal(t, "ob_123", purchase.OnboardingID)
	assert.Equal(t, "growth", purchase.PlanKey)
	assert.Equal(t, "Ana's Bakery", purchase.BusinessName)
	assert.Equal(t, "owner@example.com", purchase.CustomerEmail)
	assert.Equal(t, int64(14900), purchase.AmountCents)
	assert.Equal(t, models.PurchaseStatusCompleted, purchase.Status)
	assert.Equal(t, 1, mailer.sent)
}

func TestHandleWebhookEventDuplicateDelivery(t *testing.T) {
	store := &fakeStore{duplicate: true}
	mailer := &fakeMailer{}
	svc := newService(&fakeGateway{}, store, mailer)

	require.NoError(t, svc.HandleWebhookEvent(completedEvent(t, "evt_1")))
	assert.Equal(t, 0, mailer.sent, "redelivery must not resend the receipt")
}

func TestHandleWebhookEventStoreFailure(t *testing.T) {
	store := &fakeStore{recordErr: errors.New("connection refused")}
	svc := newService(&fakeGateway{}, store, nil)

	assert.Error(t, svc.HandleWebhookEvent(completedEvent(t, "evt_1")))
}

func TestHandleWebhookEventMailerFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	svc := newService(&fakeGateway{}, store, mailer)

	require.NoError(t, svc.HandleWebhookEvent(completedEvent(t, "evt_1")))
	assert.Equal(t, 1, mailer.sent)
}

func TestHandleWebhookEventIgnoresOtherTypes(t *testing.T) {
	store := &fakeStore{}
	svc := newService(&fakeGateway{}, store, nil)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: "invoice.paid",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleWebhookEvent(event))
	assert.Empty(t, store.recorded)
}
