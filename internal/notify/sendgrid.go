package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendGridSender accepts from as a bare address or "Name <address>".
func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: parseFrom(from)}
}

func parseFrom(from string) *sgmail.Email {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return sgmail.NewEmail("", from)
	}
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (s *SendGridSender) Name() string { return "sendgrid" }

func (s *SendGridSender) Send(ctx context.Context, e Email) error {
	msg := buildSendGridMessage(s.from, e)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func buildSendGridMessage(from *sgmail.Email, e Email) *sgmail.SGMailV3 {
	msg := sgmail.NewV3Mail()
	msg.SetFrom(from)
	msg.Subject = e.Subject

	p := sgmail.NewPersonalization()
	for _, to := range e.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	msg.AddPersonalizations(p)

	if e.Text != "" {
		msg.AddContent(sgmail.NewContent("text/plain", e.Text))
	}
	if e.HTML != "" {
		msg.AddContent(sgmail.NewContent("text/html", e.HTML))
	}
	return msg
}
