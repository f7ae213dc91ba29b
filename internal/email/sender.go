// Package email sends lead-facing transactional mail.
package email

import (
	"context"
	"time"

	"funil_backend/platform/config"
)

// Sender delivers the engine's transactional emails.
type Sender interface {
	SendVisitConfirmation(ctx context.Context, toEmail, leadName string, visitAt time.Time) error
}

// NoopSender is used when SMTP is not configured; sends succeed silently.
type NoopSender struct{}

func (NoopSender) SendVisitConfirmation(context.Context, string, string, time.Time) error {
	return nil
}

// NewSender picks the SMTP sender when email is enabled and configured,
// the noop sender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
