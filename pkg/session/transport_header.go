package session

import (
	"net/http"
	"strings"
	"time"
)

// HeaderTransport carries the token in a request header, for API clients
// that do not keep cookies.
type HeaderTransport struct {
	headerName string
	prefix     string
}

// HeaderOption configures a HeaderTransport.
type HeaderOption func(*HeaderTransport)

// WithHeaderPrefix sets a scheme prefix such as "Bearer ".
func WithHeaderPrefix(prefix string) HeaderOption {
	return func(t *HeaderTransport) {
		t.prefix = prefix
	}
}

// NewHeaderTransport creates a header transport.
func NewHeaderTransport(headerName string, opts ...HeaderOption) *HeaderTransport {
	t := &HeaderTransport{headerName: headerName}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetToken returns the header value without the prefix.
func (t *HeaderTransport) GetToken(r *http.Request) (string, error) {
	value := strings.TrimSpace(r.Header.Get(t.headerName))
	if t.prefix != "" {
		value = strings.TrimPrefix(value, t.prefix)
	}
	if value == "" {
		return "", ErrSessionNotFound
	}
	return value, nil
}

// SetToken returns the token and its expiry in response headers.
func (t *HeaderTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	w.Header().Set(t.headerName, t.prefix+token)
	if ttl > 0 {
		w.Header().Set(t.headerName+"-Expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

// ClearToken removes the token headers from the response.
func (t *HeaderTransport) ClearToken(w http.ResponseWriter) error {
	w.Header().Del(t.headerName)
	w.Header().Del(t.headerName + "-Expires")
	return nil
}
