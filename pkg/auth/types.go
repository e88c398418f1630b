package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role grants access to route groups.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleGuest
}

// User is an account. PasswordHash never leaves the service in responses.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
