package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// stripeAPIBase is the versioned Stripe REST base URL.
// Overridable in tests via ClientConfig.BaseURL.
const stripeAPIBase = "https://api.stripe.com/v1"

// ErrMissingAPIKey indicates a deployment misconfiguration, not a
// client-triggerable failure.
var ErrMissingAPIKey = errors.New("stripe secret key is not configured")

// APIError carries a failed provider call back to the handler layer:
// the provider's own message, the HTTP status, and the full parsed
// response body for inspection.
type APIError struct {
	Message string
	Status  int
	Body    map[string]any
}

func (e *APIError) Error() string {
	return e.Message
}

type ClientConfig struct {
	SecretKey  string
	BaseURL    string // override for testing; defaults to stripeAPIBase
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the Stripe REST API directly with form-encoded bodies
// and bearer auth. Responses come back as untyped JSON; the typed view
// methods below map them into the narrow structs callers actually read.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    httpClient,
		logger:    logger,
	}
}

// Call sends one request to the Stripe API and returns the parsed JSON
// body. Non-2xx responses come back as *APIError. A body that is not
// valid JSON is wrapped as {"raw": text} instead of failing the call.
func (c *Client) Call(ctx context.Context, method, path string, body map[string]any) (map[string]any, error) {
	if c.secretKey == "" {
		return nil, ErrMissingAPIKey
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = strings.NewReader(EncodeForm(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = map[string]any{"raw": string(raw)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("stripe error (status %d)", resp.StatusCode)
		if errBody, ok := parsed["error"].(map[string]any); ok {
			if m, ok := errBody["message"].(string); ok && m != "" {
				message = m
			}
		}
		c.logger.Warn("stripe call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &APIError{Message: message, Status: resp.StatusCode, Body: parsed}
	}

	return parsed, nil
}

// CheckoutSessionParams describes one hosted subscription checkout:
// a single monthly line item in USD, quantity 1.
type CheckoutSessionParams struct {
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
	PlanName          string
	UnitAmountCents   int64
}

// CheckoutSession is the narrow view of a created session: where to
// redirect the browser, and the id to poll afterwards.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	body := map[string]any{
		"mode":                "subscription",
		"success_url":         params.SuccessURL,
		"cancel_url":          params.CancelURL,
		"client_reference_id": params.ClientReferenceID,
		"line_items": []any{
			map[string]any{
				"price_data": map[string]any{
					"currency": "usd",
					"product_data": map[string]any{
						"name": params.PlanName,
					},
					"unit_amount": params.UnitAmountCents,
					"recurring": map[string]any{
						"interval": "month",
					},
				},
				"quantity": 1,
			},
		},
	}
	if params.CustomerEmail != "" {
		body["customer_email"] = params.CustomerEmail
	}
	if len(params.Metadata) > 0 {
		body["metadata"] = params.Metadata
	}

	resp, err := c.Call(ctx, http.MethodPost, "/checkout/sessions", body)
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		ID:  stringField(resp, "id"),
		URL: stringField(resp, "url"),
	}, nil
}

// CheckoutSessionStatus is the narrow view of a fetched session. The
// provider reports progress under payment_status while the session is
// open and under status once it completes, so both fields are kept.
type CheckoutSessionStatus struct {
	ID            string
	Status        string
	PaymentStatus string
	CustomerEmail string
}

// Paid is true when either lifecycle field reports completion.
func (s *CheckoutSessionStatus) Paid() bool {
	return s.PaymentStatus == "paid" || s.Status == "complete"
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionStatus, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	status := &CheckoutSessionStatus{
		ID:            stringField(resp, "id"),
		Status:        stringField(resp, "status"),
		PaymentStatus: stringField(resp, "payment_status"),
	}
	if details, ok := resp["customer_details"].(map[string]any); ok {
		status.CustomerEmail = stringField(details, "email")
	}
	if status.CustomerEmail == "" {
		status.CustomerEmail = stringField(resp, "customer_email")
	}
	return status, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
