package httpsec

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/filedeck/pkg/logger"
)

// Recoverer turns panics into 500 JSON responses and logs them with the
// stack trace. http.ErrAbortHandler is re-raised.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.ErrorContext(r.Context(), "panic recovered",
					logger.Error(fmt.Errorf("%v", rec)),
					logger.Component("recoverer"),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"code":"internal_server_error","message":"Internal Server Error"}}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
