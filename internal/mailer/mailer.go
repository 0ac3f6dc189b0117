package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/Satish-Das/food-donate-application/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers messages built by the mailer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends plain text notifications through an SMTP relay.
type SMTPMailer struct {
	sender Sender
	from   string
}

// New builds an SMTP mailer from config. The username doubles as the
// sender address when SMTP_FROM is empty.
func New(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host and port are required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = strings.TrimSpace(cfg.Username)
	}
	if from == "" {
		return nil, errors.New("smtp from address is required")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewWithSender(dialer, from), nil
}

func NewWithSender(sender Sender, from string) *SMTPMailer {
	return &SMTPMailer{sender: sender, from: from}
}

// Send delivers one message. gomail has no context support, so ctx is
// only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	return m.sender.DialAndSend(message)
}
