package models

import "time"

const (
	PurchaseStatusCompleted = "completed"
)

// Purchase is the persisted record of a completed checkout, written by
// the webhook handler. EventID is the provider's event id; the unique
// index on it makes duplicate webhook deliveries insert nothing.
type Purchase struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	EventID         string    `json:"event_id" gorm:"uniqueIndex;not null"`
	StripeSessionID string    `json:"stripe_session_id" gorm:"not null"`
	OnboardingID    string    `json:"onboarding_id"`
	PlanKey         string    `json:"plan_key"`
	BusinessName    string    `json:"business_name"`
	CustomerEmail   string    `json:"customer_email"`
	AmountCents     int64     `json:"amount_cents"`
	Status          string    `json:"status" gorm:"not null;default:'completed'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
