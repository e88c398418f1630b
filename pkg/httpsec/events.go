package httpsec

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/filedeck/pkg/clientip"
	"github.com/dmitrymomot/filedeck/pkg/logger"
)

// EventRecorder counts security events. *metrics.Metrics satisfies it.
type EventRecorder interface {
	RecordSecurityEvent(status int)
}

// IsSecurityEvent reports whether a response status marks a rejected
// request worth auditing.
func IsSecurityEvent(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}

// SecurityEvents logs responses with status 400, 403 or 429 at WARN and
// counts them when rec is not nil.
func SecurityEvents(log *slog.Logger, rec EventRecorder) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if !IsSecurityEvent(status) {
				return
			}
			if rec != nil {
				rec.RecordSecurityEvent(status)
			}
			log.WarnContext(r.Context(), "security event",
				logger.Event("security_event"),
				logger.Status(status),
				logger.ClientIP(clientip.FromRequest(r)),
				slog.String("user_agent", r.UserAgent()),
				slog.String("method", r.Method),
				slog.String("url", r.URL.RequestURI()),
			)
		})
	}
}
