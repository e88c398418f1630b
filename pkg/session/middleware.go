package session

import (
	"net/http"
)

// Middleware attaches the session of the request, if any, to its context.
// Requests without a valid session pass through unchanged.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Get(r.Context(), r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if m.shouldUpdateActivity(session) {
			m.queueActivityUpdate(session.Token)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
