package account

import (
	"errors"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/auth"
)

// MapErrors translates account errors for handler.NewErrorHandler.
func MapErrors(err error) error {
	var fields auth.FieldErrors
	if errors.As(err, &fields) {
		return handler.ValidationError(fields)
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return handler.Detailed(handler.ErrUnauthorized, "Invalid username or password", nil)
	case errors.Is(err, auth.ErrUsernameTaken):
		return handler.Detailed(handler.ErrConflict, "Username already exists", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		return handler.Detailed(handler.ErrNotFound, "User not found", nil)
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.Detailed(handler.ErrUnauthorized, "Authentication required", nil)
	case errors.Is(err, auth.ErrForbidden):
		return handler.Detailed(handler.ErrForbidden, "Insufficient permissions", nil)
	}
	return nil
}
