package session

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/filedeck/pkg/cookie"
)

// CookieTransport carries the token in a signed HttpOnly cookie.
type CookieTransport struct {
	cookieMgr     *cookie.Manager
	cookieName    string
	options       []cookie.Option
	secureCookies bool
}

// NewCookieTransport creates a cookie transport.
func NewCookieTransport(cookieMgr *cookie.Manager, cookieName string, secureCookies bool, opts ...cookie.Option) *CookieTransport {
	return &CookieTransport{
		cookieMgr:     cookieMgr,
		cookieName:    cookieName,
		options:       opts,
		secureCookies: secureCookies,
	}
}

// GetToken returns the token of a cookie with a valid signature.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetSigned(r, t.cookieName)
	if err != nil || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken writes the signed session cookie.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if t.secureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}
	opts = append(opts, t.options...)

	t.cookieMgr.SetSigned(w, t.cookieName, token, opts...)
	return nil
}

// ClearToken expires the session cookie.
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName)
	return nil
}
