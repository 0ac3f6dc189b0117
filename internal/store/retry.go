package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/google/uuid"
)

// MaxInsertAttempts bounds donation inserts: the first try plus two retries.
const MaxInsertAttempts = 3

var now = time.Now

// InsertFunc persists a single donation attempt.
type InsertFunc func(ctx context.Context, donation types.Donation) (types.Donation, error)

// InsertWithRetry runs insert until it succeeds or fails with something
// other than ErrDuplicateKey. Every retry gets a fresh uniqueId and
// donation date. Exhaustion returns an error wrapping ErrDuplicateKey.
func InsertWithRetry(ctx context.Context, donation types.Donation, insert InsertFunc) (types.Donation, error) {
	if donation.UniqueID == "" {
		donation.UniqueID = uuid.NewString()
	}

	var lastErr error
	for attempt := 1; attempt <= MaxInsertAttempts; attempt++ {
		if attempt > 1 {
			donation.UniqueID = uuid.NewString()
			donation.DonationDate = now().UTC()
		}

		created, err := insert(ctx, donation)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicateKey) {
			return types.Donation{}, err
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Donation{}, ctxErr
		}
	}

	return types.Donation{}, fmt.Errorf("insert donation after %d attempts: %w", MaxInsertAttempts, lastErr)
}
