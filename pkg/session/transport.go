package session

import (
	"net/http"
	"time"
)

// Transport moves the session token between client and server.
type Transport interface {
	GetToken(r *http.Request) (string, error)
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error
	ClearToken(w http.ResponseWriter) error
}
