package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Satish-Das/food-donate-application/types"
)

// UserLinkage keeps the denormalized donation list on user records. The
// donation store stays authoritative; Reconcile rebuilds from it.
type UserLinkage struct {
	users     UserRepository
	donations DonationRepository
	logger    *slog.Logger
}

func NewUserLinkage(users UserRepository, donations DonationRepository, logger *slog.Logger) *UserLinkage {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserLinkage{users: users, donations: donations, logger: logger}
}

// Link increments the user's donation counter and appends donationID.
func (l *UserLinkage) Link(ctx context.Context, userID, donationID string) error {
	if err := l.users.LinkDonation(ctx, userID, donationID); err != nil {
		return fmt.Errorf("link donation %s to user %s: %w", donationID, userID, err)
	}
	return nil
}

// Reconcile recomputes a user's donation references from the donations
// that name the user as owner. It returns the new count.
func (l *UserLinkage) Reconcile(ctx context.Context, userID string) (int, error) {
	owned, err := l.donations.List(ctx, types.DonationFilter{OwnerID: userID})
	if err != nil {
		return 0, fmt.Errorf("list donations for user %s: %w", userID, err)
	}

	// List is newest first; references are kept in link order.
	ids := make([]string, len(owned))
	for i, donation := range owned {
		ids[len(owned)-1-i] = donation.ID
	}

	if err := l.users.SetDonations(ctx, userID, ids); err != nil {
		return 0, fmt.Errorf("store donations for user %s: %w", userID, err)
	}
	return len(ids), nil
}

// ReconcileAll reconciles every user. Failures are logged and joined; the
// walk continues past them.
func (l *UserLinkage) ReconcileAll(ctx context.Context) (int, error) {
	users, err := l.users.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	reconciled := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return reconciled, err
		}
		count, err := l.Reconcile(ctx, user.ID)
		if err != nil {
			l.logger.Warn("failed to reconcile user donations", "user_id", user.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if count != user.TotalDonations {
			l.logger.Info("corrected donation counter",
				"user_id", user.ID,
				"previous", user.TotalDonations,
				"current", count,
			)
		}
		reconciled++
	}
	return reconciled, errors.Join(errs...)
}
