// Package retry implements the one-retry guard placed around every remote
// enumeration.
//
// The guard retries an operation exactly once after a fixed delay when it
// fails with a transient network error (see Classify). Any other failure is
// returned immediately. This sits above the SDK's own transport retryer.
//
// Two entry points encode the two call-site policies:
//
//   - Do returns the error; used where a failure must abort the run
//     (identity verification).
//   - Degrade never returns an error; used during resource enumeration where
//     one broken service must not blank out the rest of the inventory.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultDelay is the fixed pause before the single retry.
const DefaultDelay = time.Second

// maxRetries is the number of additional attempts after the first failure.
const maxRetries = 1

// ErrRetriesExhausted is wrapped into the error returned by Do when the
// operation failed transiently on every attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Guard holds the retry delay and the logger warnings are written to.
// A Guard is safe for concurrent use.
type Guard struct {
	delay  time.Duration
	logger *slog.Logger
}

// NewGuard returns a Guard that waits delay before its single retry.
// A negative delay is treated as zero; a nil logger uses slog.Default().
func NewGuard(delay time.Duration, logger *slog.Logger) *Guard {
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{delay: delay, logger: logger}
}

// Logger returns the logger the guard writes to.
func (g *Guard) Logger() *slog.Logger {
	return g.logger
}

// Do runs op, retrying once after the guard's delay if the first attempt
// fails with a ClassTransient error. Non-transient errors are returned
// without a retry. When both attempts fail transiently the returned error
// wraps ErrRetriesExhausted and the last underlying error.
//
// The value returned by the last attempt is always passed through, so
// callers can keep partial results produced before a failure.
func Do[T any](ctx context.Context, g *Guard, label string, op func(context.Context) (T, error)) (T, error) {
	var (
		out      T
		attempts int
	)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.delay), maxRetries),
		ctx,
	)

	err := backoff.Retry(func() error {
		attempts++
		v, err := op(ctx)
		out = v
		if err == nil {
			return nil
		}
		if Classify(err) != ClassTransient {
			return backoff.Permanent(err)
		}
		if attempts <= maxRetries {
			g.logger.Warn("network issue, retrying", "op", label, "attempt", attempts, "error", err)
		}
		return err
	}, policy)

	if err == nil {
		return out, nil
	}
	if Classify(err) == ClassTransient {
		return out, fmt.Errorf("%s: %w after %d attempts: %w", label, ErrRetriesExhausted, attempts, err)
	}
	return out, err
}

// Degrade runs op through Do and never fails:
//
//   - success returns op's value;
//   - exhausted transient failures log a warning and return empty;
//   - other failures log a warning and return whatever op returned alongside
//     its error, which lets listings keep records gathered before the failure;
//   - cancellation returns empty silently. Callers check ctx themselves.
func Degrade[T any](ctx context.Context, g *Guard, label string, empty T, op func(context.Context) (T, error)) T {
	v, err := Do(ctx, g, label, op)
	if err == nil {
		return v
	}

	switch {
	case errors.Is(err, ErrRetriesExhausted):
		g.logger.Warn("network issue persisted, skipping", "op", label, "error", err)
		return empty
	case Classify(err) == ClassCanceled:
		g.logger.Debug("operation canceled", "op", label)
		return empty
	default:
		g.logger.Warn("skipping after error", "op", label, "error", err)
		return v
	}
}
