package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/filedeck/pkg/binder"
	"github.com/dmitrymomot/filedeck/pkg/logger"
)

// ErrorMapper translates a domain error into an HTTPError, DetailedError or
// ValidationError. It returns nil for errors it does not recognise.
type ErrorMapper func(err error) error

// BindingErrors maps binder failures to 400, 413 and 415 responses.
func BindingErrors(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Detailed(ErrEntityTooLarge, "Request body is too large", nil)
	}

	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return Detailed(ErrUnsupportedMedia, err.Error(), nil)
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrInvalidForm),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath):
		return Detailed(ErrBadRequest, err.Error(), nil)
	}
	return nil
}

// NewErrorHandler creates a JSON error handler. Mappers are tried in order
// after BindingErrors; the first non-nil result decides the response.
// Client errors are logged at WARN, everything else at ERROR.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	mappers = append([]ErrorMapper{BindingErrors}, mappers...)

	return func(ctx Context, err error) {
		mapped := err
		for _, m := range mappers {
			if out := m(err); out != nil {
				mapped = out
				break
			}
		}

		resp := JSONError(mapped).(*jsonResponse)
		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		r := ctx.Request()
		log.LogAttrs(r.Context(), level, "request error",
			logger.Error(err),
			logger.Status(resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error response",
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}

// Responder adapts h for middleware that rejects requests before a wrapped
// handler runs, such as auth guards.
func Responder(h ErrorHandler[Context]) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		h(NewContext(w, r), err)
	}
}
