// Package notify delivers reminders to users by email and push notification.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendFunc func(ctx context.Context, msg *mail.SGMailV3) (*rest.Response, error)

// EmailSender sends plain-text mail through SendGrid
type EmailSender struct {
	from     string
	fromName string
	send     sendFunc
}

// NewEmailSender creates a SendGrid-backed sender
func NewEmailSender(apiKey, from, fromName string) *EmailSender {
	client := sendgrid.NewSendClient(apiKey)
	return newEmailSender(from, fromName, client.SendWithContext)
}

func newEmailSender(from, fromName string, send sendFunc) *EmailSender {
	return &EmailSender{from: from, fromName: fromName, send: send}
}

// SendEmail sends one message to a single recipient
func (s *EmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.from == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := s.send(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Debug().Int("status", response.StatusCode).Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}
