package ratelimit

import "net/http"

// KeyFunc extracts a unique identifier from an HTTP request for rate limiting.
type KeyFunc func(*http.Request) string

// Prefixed scopes keys produced by fn, so one store can serve several limiters.
func Prefixed(prefix string, fn KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		if key := fn(r); key != "" {
			return prefix + key
		}
		return ""
	}
}
