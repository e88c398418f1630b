package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ErrNilResponse indicates a handler returned nil instead of a Response
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with a status code and a machine readable key.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // error code sent to clients, e.g. "not_found"
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Key: "authentication_required"}
	ErrForbidden           = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrEntityTooLarge      = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrUnsupportedMedia    = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrRangeNotSatisfiable = HTTPError{Code: http.StatusRequestedRangeNotSatisfiable, Key: "requested_range_not_satisfiable"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
	ErrInternal            = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrBadGateway          = HTTPError{Code: http.StatusBadGateway, Key: "bad_gateway"}
	ErrServiceUnavailable  = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)

// ValidationError holds messages per request field.
// It's based on url.Values to leverage built-in string slice handling.
type ValidationError url.Values

// NewValidationError creates an empty ValidationError.
func NewValidationError() ValidationError {
	return make(ValidationError)
}

func (e ValidationError) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		if msgs := e[field]; len(msgs) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs[0]))
		}
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Add appends a message for field.
func (e ValidationError) Add(field, message string) {
	url.Values(e).Add(field, message)
}

// Get returns the first message for field.
func (e ValidationError) Get(field string) string {
	return url.Values(e).Get(field)
}

// Has reports whether field has messages.
func (e ValidationError) Has(field string) bool {
	return len(e[field]) > 0
}

// IsEmpty reports whether there are no messages.
func (e ValidationError) IsEmpty() bool {
	return len(e) == 0
}

// DetailedError is an HTTPError with a client-facing message and details.
type DetailedError struct {
	HTTPError
	Message string
	Details map[string][]string
}

// Detailed creates a DetailedError.
func Detailed(base HTTPError, message string, details map[string][]string) *DetailedError {
	return &DetailedError{HTTPError: base, Message: message, Details: details}
}

func (e *DetailedError) Error() string {
	return e.Key + ": " + e.Message
}

func (e *DetailedError) Unwrap() error {
	return e.HTTPError
}
