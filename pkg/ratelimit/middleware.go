package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
)

// Response headers set by the middleware. Reset is expressed in unix milliseconds.
const (
	HeaderLimit      = "X-Rate-Limit-Limit"
	HeaderRemaining  = "X-Rate-Limit-Remaining"
	HeaderReset      = "X-Rate-Limit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// MiddlewareOption configures middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onLimitReached func(w http.ResponseWriter, r *http.Request, result *Result)
	skipFunc       func(r *http.Request) bool
	logger         *slog.Logger
}

// WithOnLimitReached sets a custom handler for rejected requests.
// Rate limit headers are already written when it is called.
func WithOnLimitReached(fn func(w http.ResponseWriter, r *http.Request, result *Result)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimitReached = fn
		}
	}
}

// WithSkipFunc sets a function to determine if rate limiting should be skipped.
func WithSkipFunc(fn func(r *http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipFunc = fn
	}
}

// WithLogger sets the logger used to report store failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware enforces limiter on requests identified by keyFunc.
// Store failures let the request through and are logged.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}

	cfg := &middlewareConfig{
		onLimitReached: func(w http.ResponseWriter, r *http.Request, result *Result) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipFunc != nil && cfg.skipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "rate limiter unavailable, request allowed",
					slog.String("component", "ratelimit"), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			SetHeaders(w, result)

			if !result.Allowed {
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds(result)))
				cfg.onLimitReached(w, r, result)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithResult(r.Context(), result)))
		})
	}
}

// SetHeaders writes the rate limit headers for result.
func SetHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(result.ResetAt.UnixMilli(), 10))
}

// RetryAfterSeconds rounds the wait time up to whole seconds, at least 1.
func RetryAfterSeconds(result *Result) int {
	d := result.RetryAfter()
	secs := int((d + 999_999_999) / 1_000_000_000)
	return max(secs, 1)
}

type resultKey struct{}

// WithResult stores the rate limit result of the current request in ctx.
func WithResult(ctx context.Context, result *Result) context.Context {
	return context.WithValue(ctx, resultKey{}, result)
}

// FromContext returns the rate limit result of the current request, if any.
func FromContext(ctx context.Context) (*Result, bool) {
	r, ok := ctx.Value(resultKey{}).(*Result)
	return r, ok
}
