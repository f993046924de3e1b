// Package ratelimit implements the fixed-window "increment-and-check" counter
// used to bound how many submissions a client address may make per window.
//
// Semantics for a key K with window W and maximum N:
//
//   - no window for K, or now is past its reset time: start a new window
//     (count=1, resetAt=now+W) and allow;
//   - count has reached N: deny without incrementing;
//   - otherwise increment and allow.
//
// MemoryCounter keeps windows in process; RedisCounter shares them across
// instances through a single server-side script.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Counter is the capability the intake path depends on.
type Counter interface {
	// Allow records one attempt for key and reports whether it is within
	// the current window's budget.
	Allow(ctx context.Context, key string) (Decision, error)
	// Close releases background resources.
	Close() error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int       // attempts counted in the current window
	Remaining int       // attempts left in the current window
	ResetAt   time.Time // when the current window expires
}

// RetryAfter is how long the caller should wait from now before the window
// resets. Never negative.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.IsZero() || !d.ResetAt.After(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// Options configures a counter.
type Options struct {
	Max    int           // attempts allowed per window (>= 1)
	Window time.Duration // window length (> 0)
}

// ErrInvalidOptions is returned by constructors for a non-positive Max or Window.
var ErrInvalidOptions = errors.New("ratelimit: max and window must be positive")

func (o Options) validate() error {
	if o.Max < 1 || o.Window <= 0 {
		return ErrInvalidOptions
	}
	return nil
}

func remaining(max, count int) int {
	if count >= max {
		return 0
	}
	return max - count
}
