package httpsec

import (
	"net/http"
	"strings"
)

// DefaultContentSecurityPolicy allows the web client, inline styles and
// direct uploads to S3.
var DefaultContentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' 'unsafe-eval'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: blob: https:",
	"font-src 'self' data:",
	"connect-src 'self' https://*.amazonaws.com",
	"media-src 'self' blob:",
	"object-src 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}, "; ")

// HeadersOption configures Headers.
type HeadersOption func(http.Header)

// WithContentSecurityPolicy replaces the default policy. An empty policy
// removes the header.
func WithContentSecurityPolicy(policy string) HeadersOption {
	return func(h http.Header) {
		if policy == "" {
			h.Del("Content-Security-Policy")
			return
		}
		h.Set("Content-Security-Policy", policy)
	}
}

// WithHeader sets an extra response header.
func WithHeader(key, value string) HeadersOption {
	return func(h http.Header) {
		h.Set(key, value)
	}
}

// Headers sets the security headers on every response.
func Headers(opts ...HeadersOption) func(http.Handler) http.Handler {
	set := http.Header{}
	set.Set("X-Content-Type-Options", "nosniff")
	set.Set("X-Frame-Options", "DENY")
	set.Set("X-XSS-Protection", "1; mode=block")
	set.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	set.Set("Content-Security-Policy", DefaultContentSecurityPolicy)
	for _, opt := range opts {
		opt(set)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range set {
				h[k] = v
			}
			next.ServeHTTP(w, r)
		})
	}
}
