package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound marks a reference that could not be resolved at all, as
	// opposed to a plain cache miss.
	ErrNotFound = errors.New("not found")

	// ErrNetwork marks a failed remote fetch: connection errors, timeouts,
	// and 5xx responses.
	ErrNetwork = errors.New("network error")
)

// RetryableError marks an error as transient. RetryWithBackoff retries only
// errors carrying this wrapper; everything else fails the operation on the
// first attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so RetryWithBackoff will retry it. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to three times, doubling the pause between
// attempts starting from one second. Non-retryable errors and context
// cancellation end the loop immediately.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const maxAttempts = 3

	var err error
	delay := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
