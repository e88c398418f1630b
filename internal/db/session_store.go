package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/pkg/session"
)

// SessionStore persists HTTP sessions in the sessions table.
type SessionStore struct {
	q *Queries
}

var _ session.StoreWithCleanup = (*SessionStore)(nil)

// NewSessionStore returns a session.Store backed by q.
func NewSessionStore(q *Queries) *SessionStore {
	return &SessionStore{q: q}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}
	return s.q.CreateSession(ctx, toRecord(sess))
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	rec, err := s.q.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, session.ErrSessionNotFound
		}
		return nil, err
	}
	sess := fromRecord(rec)
	if sess.IsExpired() {
		_ = s.q.DeleteSession(ctx, token)
		return nil, session.ErrSessionExpired
	}
	return sess, nil
}

func (s *SessionStore) Update(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}
	if err := s.q.UpdateSession(ctx, toRecord(sess)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.ErrSessionNotFound
		}
		return err
	}
	return nil
}

func (s *SessionStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	if err := s.q.TouchSession(ctx, token, lastActivity); err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.ErrSessionNotFound
		}
		return err
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.q.DeleteSession(ctx, token)
}

func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.q.DeleteExpiredSessions(ctx, time.Now())
	return err
}

func (s *SessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	return s.q.DeleteUserSessions(ctx, id)
}

func toRecord(s *session.Session) *Session {
	return &Session{
		ID:             s.ID,
		Token:          s.Token,
		UserID:         s.UserID,
		Fingerprint:    s.Fingerprint,
		Data:           s.Data,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
		CreatedAt:      s.CreatedAt,
	}
}

func fromRecord(r *Session) *session.Session {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return &session.Session{
		ID:             r.ID,
		Token:          r.Token,
		UserID:         r.UserID,
		Fingerprint:    r.Fingerprint,
		Data:           data,
		ExpiresAt:      r.ExpiresAt,
		LastActivityAt: r.LastActivityAt,
		CreatedAt:      r.CreatedAt,
	}
}
