package ratelimit

import (
	"context"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request is allowed for the given key and counts it if so.
	Allow(ctx context.Context, key string) (*Result, error)
}

// Store defines the interface for fixed window counter backends.
type Store interface {
	// Take counts one hit for key unless the window already holds limit hits.
	// The first hit of a window starts it with the given length. Rejected
	// hits are not counted. Returns the counter value after the call and the
	// time left in the window.
	Take(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int64, ttl time.Duration, err error)
}
