package session

import (
	"context"

	"github.com/google/uuid"
)

type sessionContextKey struct{}

// WithSession adds a session to the context.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}

// UserIDFromContext returns the user of the session stored in ctx.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	session, ok := FromContext(ctx)
	if !ok || !session.IsAuthenticated() {
		return uuid.Nil, false
	}
	return *session.UserID, true
}
