package security

import (
	"errors"
	"strings"
)

var (
	ErrValidationFailed = errors.New("file validation failed")
	ErrInvalidFolder    = errors.New("invalid folder name")
	ErrForbiddenPath    = errors.New("access denied: invalid path")
	ErrForbiddenType    = errors.New("access denied: suspicious file type")
	ErrPathRequired     = errors.New("file path is required")

	ErrFailedToReadPolicy  = errors.New("failed to read security policy")
	ErrFailedToParsePolicy = errors.New("failed to parse security policy")
	ErrInvalidPolicy       = errors.New("invalid security policy")
)

// ValidationError carries every message produced by a failed validation.
// It matches ErrValidationFailed or ErrInvalidFolder with errors.Is.
type ValidationError struct {
	Kind     error
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Messages extracts validation messages from err.
// It returns nil when err is not a *ValidationError.
func Messages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}
