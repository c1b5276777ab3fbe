// Package retry runs fallible operations a bounded number of times with a
// fixed pause between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 5 * time.Second
)

// Policy controls how often and how patiently an operation is repeated.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Logger   *slog.Logger
}

// Default returns the policy applied to every destination call.
func Default(logger *slog.Logger) Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay, Logger: logger}
}

// Permanent marks an error that must not be retried.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Stop wraps err so that Do returns it immediately.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// Do calls fn until it succeeds, returns a permanent error, or the policy's
// attempts are used up. Domain errors with a non-retryable code are
// permanent. The last error is returned.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) && !domainErr.Code.Retryable() {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		if p.Logger != nil {
			p.Logger.Warn("operation failed, retrying",
				"op", op,
				"attempt", i+1,
				"of", attempts,
				"error", err,
			)
		}
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, lastErr)
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
