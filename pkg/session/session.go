package session

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// Data keys written at login.
const (
	KeyUsername = "username"
	KeyRole     = "role"
)

// Session is server-side session state addressed by an opaque token.
type Session struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	Fingerprint    string         `json:"fingerprint,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewSession creates a session that expires after ttl.
func NewSession(token string, userID *uuid.UUID, fingerprint string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		UserID:         userID,
		Fingerprint:    fingerprint,
		Data:           make(map[string]any),
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

// IsAuthenticated reports whether the session belongs to a user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Get returns a value from the session data.
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	val, ok := s.Data[key]
	return val, ok
}

// GetString returns a string value from the session data.
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// Set stores a value in the session data.
func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Delete removes a value from the session data.
func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
}

// Touch sets the last activity time to now.
func (s *Session) Touch() {
	if s == nil {
		return
	}
	s.LastActivityAt = time.Now()
}

// ValidateFingerprint reports whether fingerprint matches the one bound at
// login. Sessions without a fingerprint accept any.
func (s *Session) ValidateFingerprint(fingerprint string) bool {
	if s == nil || s.Fingerprint == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(s.Fingerprint), []byte(fingerprint)) == 1
}

func (s *Session) clone() *Session {
	c := *s
	if s.Data != nil {
		c.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = v
		}
	}
	return &c
}
