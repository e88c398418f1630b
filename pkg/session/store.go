package session

import (
	"context"
	"time"
)

// Store persists sessions.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get returns the session for token, ErrSessionNotFound or ErrSessionExpired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update replaces an existing session.
	Update(ctx context.Context, session *Session) error

	// UpdateActivity updates only the last activity time.
	UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error

	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all expired sessions.
	DeleteExpired(ctx context.Context) error
}

// StoreWithCleanup is implemented by stores that can drop every session of a user.
type StoreWithCleanup interface {
	Store
	DeleteByUserID(ctx context.Context, userID string) error
}
