// Package notify sends transactional email. Resend is the primary provider
// and SendGrid the fallback; the Notifier walks them in order until one
// accepts the message.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var ErrNoSender = errors.New("notify: no email provider configured")

// Email is a single outgoing message. At least one of Text or HTML is set.
type Email struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

func (e Email) validate() error {
	if len(e.To) == 0 {
		return errors.New("notify: email has no recipients")
	}
	if strings.TrimSpace(e.Subject) == "" {
		return errors.New("notify: email has no subject")
	}
	if e.Text == "" && e.HTML == "" {
		return errors.New("notify: email has no body")
	}
	return nil
}

// Sender delivers one email through one provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, e Email) error
}

// Notifier fans an email out to the first provider that accepts it.
type Notifier struct {
	senders []Sender
	adminTo string
	logger  *slog.Logger
}

// NewNotifier tries senders in the order given. adminTo is where NotifyAdmin
// delivers; empty disables admin notices.
func NewNotifier(logger *slog.Logger, adminTo string, senders ...Sender) *Notifier {
	return &Notifier{senders: senders, adminTo: adminTo, logger: logger}
}

// Enabled reports whether any provider is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Send tries each provider in turn and returns the last failure when all of
// them fail.
func (n *Notifier) Send(ctx context.Context, e Email) error {
	if err := e.validate(); err != nil {
		return err
	}
	if len(n.senders) == 0 {
		return ErrNoSender
	}

	var lastErr error
	for _, s := range n.senders {
		err := s.Send(ctx, e)
		if err == nil {
			n.logger.Info("email sent",
				slog.String("provider", s.Name()),
				slog.String("subject", e.Subject),
				slog.Int("recipients", len(e.To)),
			)
			return nil
		}
		n.logger.Warn("email provider failed", slog.String("provider", s.Name()), slog.String("error", err.Error()))
		lastErr = err
	}
	return fmt.Errorf("notify: all providers failed: %w", lastErr)
}

// NotifyAdmin emails the site admin. It never fails the caller: a missing
// configuration or a provider error is logged and swallowed.
func (n *Notifier) NotifyAdmin(ctx context.Context, subject, text string) {
	if n.adminTo == "" || !n.Enabled() {
		n.logger.Debug("admin notice skipped", slog.String("subject", subject))
		return
	}
	if err := n.Send(ctx, Email{To: []string{n.adminTo}, Subject: subject, Text: text}); err != nil {
		n.logger.Error("admin notice failed", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}
