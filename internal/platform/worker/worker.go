// Package worker provides small blocking helpers shared by the transports and
// the scorer: context-aware waits, bounded retries and panic recovery.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int

	// Delay is the pause between attempts.
	Delay time.Duration

	// ShouldRetry decides whether an error is transient. Nil retries every error.
	ShouldRetry func(err error) bool
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// WaitUntil blocks until the specified time or context is canceled.
// A deadline already in the past returns immediately.
func WaitUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}

	return Wait(ctx, d)
}

// Retry calls fn until it succeeds, ShouldRetry rejects the error,
// the attempts run out or ctx is canceled. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if waitErr := Wait(ctx, cfg.Delay); waitErr != nil {
				return waitErr
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return err
		}
	}

	return err
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// The function receives a context that will be canceled after timeout.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
