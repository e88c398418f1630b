package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/pkg/auth"
)

// UserStore adapts Queries to auth.Storage.
type UserStore struct {
	q *Queries
}

var _ auth.Storage = (*UserStore)(nil)

// NewUserStore returns an auth.Storage backed by q.
func NewUserStore(q *Queries) *UserStore {
	return &UserStore{q: q}
}

func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	rec := &User{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
	}
	if err := s.q.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return auth.ErrUsernameTaken
		}
		return err
	}
	user.ID, user.CreatedAt = rec.ID, rec.CreatedAt
	return nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return toAuthUser(s.q.GetUser(ctx, id))
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	return toAuthUser(s.q.GetUserByUsername(ctx, username))
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return userErr(s.q.UpdateUserPassword(ctx, id, hash))
}

func (s *UserStore) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error {
	return userErr(s.q.UpdateUserRole(ctx, id, string(role)))
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.q.TouchUserLogin(ctx, id, at)
}

func toAuthUser(u *User, err error) (*auth.User, error) {
	if err != nil {
		return nil, userErr(err)
	}
	return &auth.User{
		ID:           u.ID,
		Username:     u.Username,
		Role:         auth.Role(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
	}, nil
}

func userErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return auth.ErrUserNotFound
	}
	return err
}
