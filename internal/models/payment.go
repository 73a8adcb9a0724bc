package models

type CreateCheckoutSessionRequest struct {
	Plan          string `json:"plan" validate:"required"`
	SessionID     string `json:"sessionId" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	BusinessName  string `json:"businessName"`
}

type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

type CheckoutStatusResponse struct {
	Paid          bool   `json:"paid"`
	Status        string `json:"status"`
	SessionID     string `json:"sessionId"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}
