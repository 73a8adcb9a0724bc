package config

import (
	"fmt"
	"os"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type EmailConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
}

type Config struct {
	Port         string
	AllowOrigins string
	DatabaseURL  string
	JWTSecret    string
	Stripe       StripeConfig
	Email        EmailConfig
}

// LoadConfig reads the environment once at boot. Missing secrets are a
// deployment error and reported here, never discovered mid-request.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:         os.Getenv("PORT"),
		AllowOrigins: os.Getenv("ALLOW_ORIGINS"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Email: EmailConfig{
			APIKey:      os.Getenv("RESEND_API_KEY"),
			FromAddress: os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:    os.Getenv("EMAIL_FROM_NAME"),
		},
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "https://voxlane.ai, https://www.voxlane.ai, http://localhost:5173"
	}

	for name, value := range map[string]string{
		"STRIPE_SECRET_KEY":     cfg.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET": cfg.Stripe.WebhookSecret,
		"DATABASE_URL":          cfg.DatabaseURL,
		"JWT_SECRET":            cfg.JWTSecret,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s is not set", name)
		}
	}

	return cfg, nil
}
