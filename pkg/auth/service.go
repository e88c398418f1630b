package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/filedeck/pkg/logger"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Storage defines the persistence operations required by Service.
type Storage interface {
	// CreateUser returns ErrUsernameTaken when the username exists.
	CreateUser(ctx context.Context, user *User) error
	// GetUserByID and GetUserByUsername return ErrUserNotFound for unknown users.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service implements username and password accounts.
type Service struct {
	storage    Storage
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time

	// dummyHash is compared against when the user does not exist so that
	// unknown usernames cost as much as wrong passwords.
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an account service over storage.
func NewService(storage Storage, opts ...Option) *Service {
	s := &Service{
		storage:    storage,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.bcryptCost)
	return s
}

// NewFromConfig creates an account service configured from cfg.
func NewFromConfig(cfg Config, storage Storage, opts ...Option) *Service {
	return NewService(storage, append([]Option{WithBcryptCost(cfg.BcryptCost)}, opts...)...)
}

// Register creates a guest account.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)

	errs := FieldErrors{}
	validateUsername(errs, username)
	validatePassword(errs, "password", password)
	if err := errs.err(); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, username, password, RoleGuest)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		logger.UserID(user.ID),
		logger.Role(string(user.Role)),
		logger.Component("auth"),
	)
	return user, nil
}

func (s *Service) create(ctx context.Context, username, password string, role Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and records the login time.
// Every failure is reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.ErrorContext(ctx, "failed to load user for login",
				logger.Error(err), logger.Component("auth"))
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.storage.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record login time",
			logger.UserID(user.ID), logger.Error(err), logger.Component("auth"))
	} else {
		user.LastLoginAt = &now
	}

	return user, nil
}

// ChangePassword replaces the password of userID after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	errs := FieldErrors{}
	if currentPassword == "" {
		errs.add("current_password", "Current password is required")
	}
	validatePassword(errs, "new_password", newPassword)
	if err := errs.err(); err != nil {
		return err
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.storage.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", logger.UserID(userID), logger.Component("auth"))
	return nil
}

// User returns the account with id.
func (s *Service) User(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// EnsureAdmin makes sure an admin account named username exists. A missing
// account is created with password, an existing one is promoted to admin and
// keeps its password. The returned flag reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*User, bool, error) {
	username = strings.TrimSpace(username)

	user, err := s.storage.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Role != RoleAdmin {
			if err := s.storage.UpdateRole(ctx, user.ID, RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote admin: %w", err)
			}
			user.Role = RoleAdmin
			s.logger.InfoContext(ctx, "user promoted to admin", logger.UserID(user.ID), logger.Component("auth"))
		}
		return user, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to load admin: %w", err)
	}

	errs := FieldErrors{}
	validateUsername(errs, username)
	validatePassword(errs, "password", password)
	if err := errs.err(); err != nil {
		return nil, false, err
	}

	user, err = s.create(ctx, username, password, RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "admin account created", logger.UserID(user.ID), logger.Component("auth"))
	return user, true, nil
}

func validateUsername(errs FieldErrors, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		errs.add("username", "Username is required")
	case n < minUsernameLength:
		errs.add("username", fmt.Sprintf("Username must be at least %d characters", minUsernameLength))
	case n > maxUsernameLength:
		errs.add("username", fmt.Sprintf("Username must be at most %d characters", maxUsernameLength))
	case !usernamePattern.MatchString(username):
		errs.add("username", "Username may contain only letters, digits, dots, dashes and underscores")
	}
}

func validatePassword(errs FieldErrors, field, password string) {
	switch {
	case len(password) < minPasswordLength:
		errs.add(field, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	case len(password) > maxPasswordLength:
		errs.add(field, fmt.Sprintf("Password must be at most %d bytes", maxPasswordLength))
	}
}
