package httpsec_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/pkg/httpsec"
)

type recorder struct {
	mu     sync.Mutex
	events []int
}

func (r *recorder) RecordSecurityEvent(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, status)
}

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		httpsec.Headers()(statusHandler(http.StatusOK)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.Equal(t, httpsec.DefaultContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "object-src 'none'")
	})

	t.Run("custom policy", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		mw := httpsec.Headers(
			httpsec.WithContentSecurityPolicy("default-src 'none'"),
			httpsec.WithHeader("Strict-Transport-Security", "max-age=63072000"),
		)
		mw(statusHandler(http.StatusOK)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Equal(t, "max-age=63072000", w.Header().Get("Strict-Transport-Security"))
	})
}

func TestSecurityEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		logged bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, true},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			rec := &recorder{}
			mw := httpsec.SecurityEvents(slog.New(slog.NewJSONHandler(&buf, nil)), rec)

			r := httptest.NewRequest(http.MethodPost, "/api/files/upload-url?x=1", nil)
			r.Header.Set("User-Agent", "curl/8.0")
			mw(statusHandler(tt.status)).ServeHTTP(httptest.NewRecorder(), r)

			if !tt.logged {
				assert.Empty(t, buf.String())
				assert.Empty(t, rec.events)
				return
			}
			assert.Contains(t, buf.String(), `"msg":"security event"`)
			assert.Contains(t, buf.String(), `"url":"/api/files/upload-url?x=1"`)
			assert.Contains(t, buf.String(), `"user_agent":"curl/8.0"`)
			assert.Equal(t, []int{tt.status}, rec.events)
		})
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := httpsec.Recoverer(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"internal_server_error","message":"Internal Server Error"}}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")

	abort := httpsec.Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
