package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// DefaultHeaders are consulted in order when proxy headers are trusted.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// Config lists the proxy headers trusted to carry the client address.
// An empty list means only the TCP peer address is used.
type Config struct {
	TrustedHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:"," envDefault:"X-Forwarded-For,X-Real-IP"`
}

// Resolver extracts the client IP from a request.
type Resolver struct {
	headers []string
}

// NewResolver creates a resolver that trusts the given headers in order.
func NewResolver(headers ...string) *Resolver {
	clean := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: clean}
}

// NewFromConfig creates a resolver from configuration.
func NewFromConfig(cfg Config) *Resolver {
	return NewResolver(cfg.TrustedHeaders...)
}

var defaultResolver = NewResolver(DefaultHeaders...)

// GetIP returns the client IP using DefaultHeaders.
func GetIP(r *http.Request) string {
	return defaultResolver.IP(r)
}

// IP returns the normalized client IP. The first valid address found in the
// trusted headers wins; X-Forwarded-For is scanned left to right. Falls back
// to RemoteAddr.
func (res *Resolver) IP(r *http.Request) string {
	for _, name := range res.headers {
		value := r.Header.Get(name)
		if value == "" {
			continue
		}
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// Middleware stores the resolved client IP in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithIP(r.Context(), res.IP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ipContextKey struct{}

// WithIP stores ip in ctx.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipContextKey{}, ip)
}

// FromContext returns the client IP stored by Middleware.
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipContextKey{}).(string)
	return ip
}

// FromRequest returns the IP stored in the request context, resolving it
// with the default headers when the middleware did not run.
func FromRequest(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
