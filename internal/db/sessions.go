package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = `token, id, user_id, fingerprint, data, expires_at, last_activity_at, created_at`

// CreateSession inserts a session.
func (q *Queries) CreateSession(ctx context.Context, s *Session) error {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.db.Exec(ctx, query, s.Token, s.ID, s.UserID, s.Fingerprint, data,
		s.ExpiresAt, s.LastActivityAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}
	return nil
}

// GetSession returns the session stored under token.
func (q *Queries) GetSession(ctx context.Context, token string) (*Session, error) {
	var s Session
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`
	err := q.db.QueryRow(ctx, query, token).Scan(&s.Token, &s.ID, &s.UserID, &s.Fingerprint,
		&s.Data, &s.ExpiresAt, &s.LastActivityAt, &s.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// UpdateSession replaces the mutable fields of a session.
func (q *Queries) UpdateSession(ctx context.Context, s *Session) error {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	query := `
		UPDATE sessions
		SET user_id = $2, fingerprint = $3, data = $4, expires_at = $5, last_activity_at = $6
		WHERE token = $1
	`
	tag, err := q.db.Exec(ctx, query, s.Token, s.UserID, s.Fingerprint, data, s.ExpiresAt, s.LastActivityAt)
	if err != nil {
		return fmt.Errorf("update session: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchSession updates the last activity time of a session.
func (q *Queries) TouchSession(ctx context.Context, token string, t time.Time) error {
	tag, err := q.db.Exec(ctx, `UPDATE sessions SET last_activity_at = $2 WHERE token = $1`, token, t)
	if err != nil {
		return fmt.Errorf("touch session: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session. Missing tokens are ignored.
func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// their number.
func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteUserSessions removes every session of a user.
func (q *Queries) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
