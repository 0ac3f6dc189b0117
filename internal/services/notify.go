package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Satish-Das/food-donate-application/types"
)

// Mailer sends a plain text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService turns donation events into donor emails.
type NotificationService struct {
	mailer Mailer
	logger *slog.Logger
}

func NewNotificationService(mailer Mailer, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{mailer: mailer, logger: logger}
}

// HandleDonationEvent emails the donor about event. A returned error asks
// the broker to redeliver the event.
func (s *NotificationService) HandleDonationEvent(ctx context.Context, event types.DonationEvent) error {
	to := strings.TrimSpace(event.Email)
	if to == "" {
		s.logger.Debug("skipping donation event without email", "donation_id", event.DonationID)
		return nil
	}

	subject, body, ok := composeNotification(event)
	if !ok {
		s.logger.Debug("ignoring donation event", "type", event.Type, "donation_id", event.DonationID)
		return nil
	}

	if s.mailer == nil {
		s.logger.Info("mailer disabled, notification not sent", "type", event.Type, "donation_id", event.DonationID, "subject", subject)
		return nil
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send %s notification for donation %s: %w", event.Type, event.DonationID, err)
	}
	s.logger.Info("sent donation notification", "type", event.Type, "donation_id", event.DonationID)
	return nil
}

func composeNotification(event types.DonationEvent) (string, string, bool) {
	name := event.FullName
	if name == "" {
		name = "donor"
	}

	switch event.Type {
	case types.EventDonationCreated:
		subject := "Thank you for your food donation"
		body := fmt.Sprintf(
			"Hello %s,\n\nWe received your donation (reference %s). Its status is %s and our team will contact you soon.\n",
			name, event.DonationID, event.Status,
		)
		return subject, body, true
	case types.EventDonationStatusChanged:
		subject := fmt.Sprintf("Your donation is now %s", event.Status)
		body := fmt.Sprintf(
			"Hello %s,\n\nThe status of your donation %s changed from %s to %s.\n",
			name, event.DonationID, event.Previous, event.Status,
		)
		return subject, body, true
	default:
		return "", "", false
	}
}
