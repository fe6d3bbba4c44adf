package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/user/devsocial/internal/types"
)

// RetryPolicy controls how failed store calls are retried with exponential
// backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 3 attempts, 250ms initial delay, 2x multiplier, 5s max delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
}

// isRetryable classifies errors as retryable or permanent. Only failures
// that prove the request never reached the collaborator (refused dial, name
// resolution) are retryable. Everything else is permanent, timeouts
// included: a timed-out call may already be executing server-side, and
// inserts are not idempotent, so a blind retry could double-write.
func (p *RetryPolicy) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if kind := types.KindOf(err); kind == types.KindConflict || kind == types.KindValidation {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "23505") || strings.Contains(msg, "pgrst") {
		return false
	}
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "temporary failure in name resolution")
}

// NextDelay returns the backoff delay for the given attempt number (1-indexed).
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Execute runs fn up to MaxAttempts times, backing off between retries.
// Returns nil on success, or the last error when attempts are exhausted or
// the error is permanent. Backoff sleeps respect ctx cancellation.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.isRetryable(err) {
			return err
		}
		if attempt < p.MaxAttempts {
			select {
			case <-time.After(p.NextDelay(attempt)):
			case <-ctx.Done():
				return lastErr
			}
		}
	}
	return lastErr
}
