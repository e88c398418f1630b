package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiter settings.
type Config struct {
	Limit           int           `env:"UPLOAD_RATE_LIMIT" envDefault:"10"`
	Window          time.Duration `env:"UPLOAD_RATE_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"UPLOAD_RATE_CLEANUP_INTERVAL" envDefault:"5m"`
	Store           string        `env:"UPLOAD_RATE_STORE" envDefault:"memory"` // memory or redis
	KeyPrefix       string        `env:"UPLOAD_RATE_KEY_PREFIX" envDefault:"ratelimit:"`
}

// FixedWindow allows at most limit requests per key in consecutive windows.
// A window starts with the first request for a key and lasts for the
// configured duration; the counter resets when it ends.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// FixedWindowOption configures a FixedWindow limiter.
type FixedWindowOption func(*FixedWindow)

// WithClock overrides the time source used to compute reset times.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(fw *FixedWindow) {
		if now != nil {
			fw.now = now
		}
	}
}

// NewFixedWindow creates a fixed window limiter.
func NewFixedWindow(store Store, limit int, window time.Duration, opts ...FixedWindowOption) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidInterval
	}

	fw := &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

// Allow counts a request for key if the window has room.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	allowed, count, ttl, err := fw.store.Take(ctx, key, fw.limit, fw.window)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     fw.limit,
		Remaining: max(fw.limit-int(count), 0),
		ResetAt:   fw.now().Add(ttl),
	}, nil
}
