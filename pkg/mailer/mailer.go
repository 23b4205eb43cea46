package mailer

import (
	"context"
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/olivergrant/ibts-backend/pkg/config"
)

// Sender delivers a single rendered notification. Implementations should
// return an error for any delivery they cannot confirm; the caller treats
// the error as a retryable failure.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender sends mail through a configured SMTP relay via gomail.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTPSender validates the SMTP settings and builds a sender.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp port must be positive")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// Send delivers one HTML email. gomail dials per message, which is fine at
// the processor's batch sizes.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.from, s.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
