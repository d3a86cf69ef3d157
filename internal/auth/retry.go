package auth

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how often a transient provider failure is retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes three attempts waiting 200ms then 400ms
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}

// do runs fn until it succeeds, fails with a non-transient error, or attempts run out.
// Only ErrProviderUnavailable is retried.
func (p RetryPolicy) do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, ErrProviderUnavailable) {
			return err
		}

		log.WithFields(logrus.Fields{
			"operation":    operation,
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        err.Error(),
		}).Warn("Provider call failed")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
