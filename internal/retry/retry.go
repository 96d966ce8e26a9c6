// Package retry implements bounded exponential-backoff retry for transient
// backend failures. Only a closed set of network errors and HTTP statuses is
// retried; everything else propagates immediately without consuming budget.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// Config holds configuration for retry behavior.
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultConfig provides sensible defaults for backend calls.
var DefaultConfig = Config{
	MaxAttempts:   3,
	BaseDelay:     500 * time.Millisecond,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// minDelay is the floor applied after jitter so a tiny base delay can never
// collapse into a hot loop.
const minDelay = 100 * time.Millisecond

// retryableStatuses is the closed set of HTTP statuses treated as transient.
var retryableStatuses = map[int]bool{
	500: true,
	502: true,
	503: true,
	504: true,
	408: true,
	429: true,
}

// RetryableStatus reports whether an HTTP status code is worth retrying.
func RetryableStatus(status int) bool {
	return retryableStatuses[status]
}

// TransientError marks an error as retryable regardless of its cause chain.
// The HTTP layer wraps retryable upstream statuses in one of these.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient upstream failure (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient upstream failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ExhaustedError wraps the last error after the retry budget ran out.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retryable classifies an error. Retryable causes are the closed set of
// network-level failures (timeouts, refused connections) plus anything
// explicitly wrapped in TransientError.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// Context deadline on the individual call counts as a read timeout;
	// cancellation of the whole request does not.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// Do executes fn, retrying transient failures with exponential backoff until
// the attempt budget is exhausted or ctx is cancelled. The attempt number
// passed to fn starts at 1.
func Do(ctx context.Context, config Config, fn func(attempt int) error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultConfig.BaseDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultConfig.MaxDelay
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = DefaultConfig.BackoffFactor
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) {
			return err
		}
		if attempt >= config.MaxAttempts {
			break
		}

		delay := backoffDelay(config, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return &ExhaustedError{Attempts: config.MaxAttempts, Err: lastErr}
}

// backoffDelay computes base * factor^(attempt-1), capped, jittered, floored.
func backoffDelay(config Config, attempt int) time.Duration {
	delay := time.Duration(float64(config.BaseDelay) * math.Pow(config.BackoffFactor, float64(attempt-1)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.Jitter {
		// ±25% to spread concurrent retries apart.
		factor := 1 + (rand.Float64()-0.5)*0.5
		delay = time.Duration(float64(delay) * factor)
	}
	if delay < minDelay {
		delay = minDelay
	}
	return delay
}
