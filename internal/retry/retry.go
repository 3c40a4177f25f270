// Package retry runs an operation under a fixed-count, fixed-interval policy.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop: at most MaxAttempts calls, Interval apart.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultPolicy is ten attempts three seconds apart, enough to ride out a
// datastore that is still starting alongside the service.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 10, Interval: 3 * time.Second}
}

// Clock abstracts the delay between attempts so tests can skip it.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock waits on the wall clock.
var RealClock Clock = realClock{}

// ExhaustedError is returned when every attempt allowed by the policy failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Do calls fn until it succeeds or the policy is used up. Attempts are
// numbered from 1. onFail, if non-nil, sees every failed attempt. There is no
// delay after the final attempt. A cancelled context stops the loop and its
// error is returned as-is.
func Do[T any](
	ctx context.Context,
	p Policy,
	clk Clock,
	fn func(ctx context.Context, attempt int) (T, error),
	onFail func(attempt int, err error),
) (T, error) {
	if clk == nil {
		clk = RealClock
	}
	attempts := max(p.MaxAttempts, 1)

	var zero T
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		last = err
		if onFail != nil {
			onFail(attempt, err)
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-clk.After(p.Interval):
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}
