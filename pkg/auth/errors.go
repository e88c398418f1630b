package auth

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access denied")
)

// FieldErrors maps input fields to validation messages. It matches
// ErrInvalidInput with errors.Is.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
