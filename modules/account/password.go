package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/binder"
	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/session"
)

// Accounts defines the account operations needed for password authentication.
// *auth.Service satisfies it.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*auth.User, error)
	Login(ctx context.Context, username, password string) (*auth.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
}

// Sessions defines the session operations used by PasswordService.
// *session.Manager satisfies it.
type Sessions interface {
	Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, data map[string]any) (*session.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	DestroyUser(ctx context.Context, userID uuid.UUID) error
}

type PasswordService struct {
	accounts     Accounts
	sessions     Sessions
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

func NewPasswordService(
	accounts Accounts,
	sessions Sessions,
	errorHandler handler.ErrorHandler[handler.Context],
	log *slog.Logger,
) *PasswordService {
	if log == nil {
		log = slog.Default()
	}
	return &PasswordService{
		accounts:     accounts,
		sessions:     sessions,
		errorHandler: errorHandler,
		logger:       log,
	}
}

func (s *PasswordService) Handle() http.Handler {
	r := chi.NewRouter()
	respond := handler.Responder(s.errorHandler)

	r.Post("/register", handler.Wrap(s.register,
		handler.WithBinders[handler.Context, CredentialsRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
	))
	r.Post("/login", handler.Wrap(s.login,
		handler.WithBinders[handler.Context, CredentialsRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, CredentialsRequest](s.errorHandler),
	))
	r.Post("/logout", handler.Wrap(s.logout,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	r.With(auth.RequireAuth(respond)).Get("/me", handler.Wrap(s.me,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.With(auth.RequireAdmin(respond)).Post("/change-password", handler.Wrap(s.changePassword,
		handler.WithBinders[handler.Context, ChangePasswordRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, ChangePasswordRequest](s.errorHandler),
	))

	return r
}

// CredentialsRequest is the body of the register and login endpoints.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of the change-password endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	User *auth.User `json:"user"`
}

func (s *PasswordService) register(ctx handler.Context, req CredentialsRequest) handler.Response {
	user, err := s.accounts.Register(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Fail(err)
	}
	if err := s.startSession(ctx, user); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(userResponse{User: user}, handler.WithJSONStatus(http.StatusCreated))
}

func (s *PasswordService) login(ctx handler.Context, req CredentialsRequest) handler.Response {
	user, err := s.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Fail(err)
	}
	if err := s.startSession(ctx, user); err != nil {
		return handler.Fail(err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		logger.UserID(user.ID),
		logger.Role(string(user.Role)),
		logger.Component("account"),
	)
	return handler.JSON(userResponse{User: user})
}

func (s *PasswordService) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.sessions.Destroy(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}

func (s *PasswordService) me(ctx handler.Context, _ struct{}) handler.Response {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return handler.Fail(auth.ErrUnauthorized)
	}
	return handler.JSON(userResponse{User: user})
}

// changePassword signs out every session of the user and opens a fresh one
// for the current client.
func (s *PasswordService) changePassword(ctx handler.Context, req ChangePasswordRequest) handler.Response {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return handler.Fail(auth.ErrUnauthorized)
	}

	if err := s.accounts.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return handler.Fail(err)
	}
	if err := s.sessions.DestroyUser(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after password change",
			logger.UserID(user.ID),
			logger.Error(err),
			logger.Component("account"),
		)
	}
	if err := s.startSession(ctx, user); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}

func (s *PasswordService) startSession(ctx handler.Context, user *auth.User) error {
	_, err := s.sessions.Login(ctx, ctx.ResponseWriter(), ctx.Request(), user.ID, map[string]any{
		"role": string(user.Role),
	})
	return err
}
