package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: 100 * time.Millisecond}
}

// Do runs fn until it succeeds, fails with a non-conflict error, or the attempts run out.
// Inside an open transaction fn runs once: a retry there would reuse an aborted tx.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if transaction.InTx(ctx) || p.Attempts <= 1 {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !apperror.IsRetryable(err) {
			return err
		}
		if attempt == p.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", p.Attempts, err)
}
