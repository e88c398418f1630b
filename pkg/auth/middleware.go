package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/session"
)

// ErrorResponder writes the response of a rejected request.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

func defaultResponder(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, ErrForbidden) {
		status = http.StatusForbidden
	}
	http.Error(w, err.Error(), status)
}

// Middleware loads the user of the session in the request context. Requests
// without a session, or whose user no longer exists, pass through anonymous.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.User(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, ErrUserNotFound) {
				s.logger.ErrorContext(r.Context(), "failed to load session user",
					logger.UserID(userID), logger.Error(err), logger.Component("auth"))
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAuth rejects anonymous requests with ErrUnauthorized.
func RequireAuth(respond ErrorResponder) func(http.Handler) http.Handler {
	return RequireRole(respond)
}

// RequireAdmin admits admins only.
func RequireAdmin(respond ErrorResponder) func(http.Handler) http.Handler {
	return RequireRole(respond, RoleAdmin)
}

// RequireUser admits admins and guests.
func RequireUser(respond ErrorResponder) func(http.Handler) http.Handler {
	return RequireRole(respond, RoleAdmin, RoleGuest)
}

// RequireRole rejects anonymous requests with ErrUnauthorized and users
// outside roles with ErrForbidden. Without roles any user is admitted.
func RequireRole(respond ErrorResponder, roles ...Role) func(http.Handler) http.Handler {
	if respond == nil {
		respond = defaultResponder
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respond(w, r, ErrUnauthorized)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, user.Role) {
				slog.Default().WarnContext(r.Context(), "role check failed",
					logger.UserID(user.ID), logger.Role(string(user.Role)), logger.Component("auth"))
				respond(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
