package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1a1a2e;">
    <h2>Thanks for subscribing to Voxlane!</h2>
    <p>Your <strong>{{.PlanName}}</strong> subscription is active.</p>
    <p>Amount: <strong>{{.Amount}}/month</strong></p>
    {{if .BusinessName}}<p>Business: {{.BusinessName}}</p>{{end}}
    <p>Your AI receptionist is being set up now. You can finish
    configuring it from your dashboard.</p>
    <p style="color: #888; font-size: 12px;">&copy; {{.Year}} Voxlane</p>
  </body>
</html>`

type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	receipt  *template.Template
	logger   *zap.Logger
}

func NewEmailService(apiKey, from, fromName string, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(apiKey),
		from:     from,
		fromName: fromName,
		receipt:  template.Must(template.New("receipt").Parse(receiptTemplate)),
		logger:   logger,
	}
}

func (s *EmailService) SendPaymentReceipt(to, businessName, planName string, amountCents int64) error {
	templateData := map[string]interface{}{
		"PlanName":     planName,
		"BusinessName": businessName,
		"Amount":       fmt.Sprintf("$%.2f", float64(amountCents)/100),
		"Year":         time.Now().Year(),
	}

	var body bytes.Buffer
	if err := s.receipt.Execute(&body, templateData); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: "Your Voxlane subscription is active",
		Html:    body.String(),
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Warn("failed to send receipt email", zap.String("to", to), zap.Error(err))
		return err
	}

	s.logger.Info("sent receipt email", zap.String("to", to), zap.String("id", resp.Id))
	return nil
}
