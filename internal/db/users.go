package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, role, created_at, last_login_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateUser inserts a user. ID and CreatedAt are assigned when zero.
func (q *Queries) CreateUser(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = q.newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = q.now()
	}

	query := `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.db.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", mapError(err))
	}
	return nil
}

// GetUser returns the user with id.
func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

// GetUserByUsername returns the user with username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(q.db.QueryRow(ctx, query, username))
}

// UpdateUserPassword replaces the password hash of a user.
func (q *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := q.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole changes the role of a user.
func (q *Queries) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := q.db.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update role: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchUserLogin records a successful login at t.
func (q *Queries) TouchUserLogin(ctx context.Context, id uuid.UUID, t time.Time) error {
	if _, err := q.db.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, t); err != nil {
		return fmt.Errorf("touch login: %w", mapError(err))
	}
	return nil
}

// CountUsers returns the number of accounts.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
