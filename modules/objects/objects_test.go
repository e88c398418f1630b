package objects_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/modules/account"
	"github.com/dmitrymomot/filedeck/modules/files"
	"github.com/dmitrymomot/filedeck/modules/objects"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) NewUploadKey() string {
	return m.Called().String(0)
}

func (m *MockStore) NewUploadTarget(ctx context.Context, contentType string) (*objectstore.UploadTarget, error) {
	args := m.Called(ctx, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.UploadTarget), args.Error(1)
}

func (m *MockStore) PresignPost(ctx context.Context, key, contentType string) (*objectstore.PresignedPost, error) {
	args := m.Called(ctx, key, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.PresignedPost), args.Error(1)
}

func (m *MockStore) NormalizeObjectPath(raw string) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

func (m *MockStore) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockStore) Open(ctx context.Context, key, rangeHeader string) (*objectstore.Object, error) {
	args := m.Called(ctx, key, rangeHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.Object), args.Error(1)
}

func (m *MockStore) Head(ctx context.Context, key string) (*objectstore.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.ObjectInfo), args.Error(1)
}

func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]objectstore.ObjectInfo), args.Error(1)
}

func (m *MockStore) Copy(ctx context.Context, src, dst string) error {
	return m.Called(ctx, src, dst).Error(0)
}

func (m *MockStore) Move(ctx context.Context, src, dst string) error {
	return m.Called(ctx, src, dst).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

var (
	admin = &auth.User{ID: uuid.New(), Username: "admin", Role: auth.RoleAdmin}
	guest = &auth.User{ID: uuid.New(), Username: "guest", Role: auth.RoleGuest}
)

func newRouter(store *MockStore, user *auth.User) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := handler.NewErrorHandler(log, account.MapErrors, files.MapErrors, objects.MapErrors)
	validator := security.New(security.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))
	svc := objects.New(store, validator, eh, log)

	r := http.NewServeMux()
	r.Handle("/objects/", http.StripPrefix("/objects", svc.Serve()))
	r.Handle("/api/objects/", http.StripPrefix("/api/objects", svc.Handle()))

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if user != nil {
			req = req.WithContext(auth.WithUser(req.Context(), user))
		}
		r.ServeHTTP(w, req)
	})
}

func TestServeObject(t *testing.T) {
	t.Parallel()

	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("full object", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("Open", mock.Anything, "uploads/abc", "").Return(&objectstore.Object{
			ObjectInfo: objectstore.ObjectInfo{
				Key: "uploads/abc", Size: 5, ContentType: "text/plain", ETag: `"e1"`, LastModified: modified,
			},
			Body: io.NopCloser(strings.NewReader("hello")),
		}, nil)

		w := httptest.NewRecorder()
		newRouter(store, guest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/objects/uploads/abc", nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "hello", w.Body.String())
		assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
		assert.Equal(t, "5", w.Header().Get("Content-Length"))
		assert.Equal(t, objects.CacheControl, w.Header().Get("Cache-Control"))
		assert.Equal(t, `"e1"`, w.Header().Get("ETag"))
		assert.Equal(t, "Sun, 01 Mar 2026 12:00:00 GMT", w.Header().Get("Last-Modified"))
	})

	t.Run("range", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("Open", mock.Anything, "uploads/abc", "bytes=0-1").Return(&objectstore.Object{
			ObjectInfo:   objectstore.ObjectInfo{Key: "uploads/abc", Size: 2, ContentType: "text/plain"},
			Body:         io.NopCloser(strings.NewReader("he")),
			ContentRange: "bytes 0-1/5",
		}, nil)

		r := httptest.NewRequest(http.MethodGet, "/objects/uploads/abc", nil)
		r.Header.Set("Range", "bytes=0-1")
		w := httptest.NewRecorder()
		newRouter(store, guest).ServeHTTP(w, r)

		assert.Equal(t, http.StatusPartialContent, w.Code)
		assert.Equal(t, "bytes 0-1/5", w.Header().Get("Content-Range"))
		assert.Equal(t, "he", w.Body.String())
	})

	t.Run("not modified", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("Open", mock.Anything, "uploads/abc", "").Return(&objectstore.Object{
			ObjectInfo: objectstore.ObjectInfo{Key: "uploads/abc", Size: 5, ETag: `"e1"`},
			Body:       io.NopCloser(strings.NewReader("hello")),
		}, nil)

		r := httptest.NewRequest(http.MethodGet, "/objects/uploads/abc", nil)
		r.Header.Set("If-None-Match", `"e1"`)
		w := httptest.NewRecorder()
		newRouter(store, guest).ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.String())
	})

	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"suspicious extension", "/objects/uploads/shell.php", nil, http.StatusForbidden},
		{"home directory", "/objects/~root/file", nil, http.StatusForbidden},
		{"missing object", "/objects/uploads/gone", objectstore.ErrObjectNotFound, http.StatusNotFound},
		{"bad range", "/objects/uploads/abc", objectstore.ErrInvalidRange, http.StatusRequestedRangeNotSatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &MockStore{}
			if tt.err != nil {
				store.On("Open", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := httptest.NewRecorder()
			newRouter(store, guest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.err == nil {
				store.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockStore{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/objects/uploads/abc", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()

	t.Run("guests are forbidden", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockStore{}, guest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/objects/", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("List", mock.Anything, "uploads/").Return([]objectstore.ObjectInfo{
			{Key: "uploads/a", Size: 1},
			{Key: "uploads/b", Size: 2},
		}, nil)
		store.On("PublicURL", "uploads/a").Return("https://files-bucket.s3.us-east-1.amazonaws.com/uploads/a")
		store.On("PublicURL", "uploads/b").Return("https://files-bucket.s3.us-east-1.amazonaws.com/uploads/b")

		w := httptest.NewRecorder()
		newRouter(store, admin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/objects/?prefix=uploads/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []struct {
				Key        string `json:"key"`
				ObjectPath string `json:"objectPath"`
				PublicURL  string `json:"publicUrl"`
			} `json:"data"`
			Meta map[string]any `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		assert.Equal(t, "/objects/uploads/b", body.Data[1].ObjectPath)
		assert.Equal(t, "https://files-bucket.s3.us-east-1.amazonaws.com/uploads/b", body.Data[1].PublicURL)
		assert.Equal(t, float64(2), body.Meta["count"])
	})

	t.Run("presigned post", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("NewUploadKey").Return("uploads/0b1c")
		store.On("PresignPost", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "uploads/0b1c-1700000000000_") && strings.HasSuffix(key, ".pdf")
		}), "application/pdf").Return(&objectstore.PresignedPost{
			URL:        "https://bucket.s3.amazonaws.com",
			Fields:     map[string]string{"key": "uploads/0b1c-x.pdf"},
			Key:        "uploads/0b1c-x.pdf",
			ObjectPath: "/objects/uploads/0b1c-x.pdf",
		}, nil)

		r := httptest.NewRequest(http.MethodPost, "/api/objects/presigned-post", strings.NewReader(`{"fileName":"Report.PDF","contentType":"application/pdf"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(store, admin).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"objectPath":"/objects/uploads/0b1c-x.pdf"`)
		store.AssertExpectations(t)
	})

	t.Run("presigned post rejects bad name", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/api/objects/presigned-post", strings.NewReader(`{"fileName":"run.exe","contentType":"application/x-msdownload"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(&MockStore{}, admin).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "File type not allowed: application/x-msdownload")
	})

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("Exists", mock.Anything, "uploads/abc").Return(true, nil)
		store.On("Exists", mock.Anything, "uploads/missing").Return(false, nil)
		router := newRouter(store, admin)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/objects/complete/uploads/abc", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"objectPath":"/objects/uploads/abc"}}`, w.Body.String())

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/objects/complete/uploads/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("move", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("NormalizeObjectPath", "https://bucket.s3.us-east-1.amazonaws.com/uploads/a").Return("/objects/uploads/a", nil)
		store.On("NormalizeObjectPath", "archive/a").Return("/objects/archive/a", nil)
		store.On("Move", mock.Anything, "uploads/a", "archive/a").Return(nil)

		r := httptest.NewRequest(http.MethodPost, "/api/objects/move",
			strings.NewReader(`{"source":"https://bucket.s3.us-east-1.amazonaws.com/uploads/a","destination":"archive/a"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(store, admin).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"data":{"objectPath":"/objects/archive/a"}}`, w.Body.String())
		store.AssertExpectations(t)
	})

	t.Run("copy foreign url", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("NormalizeObjectPath", "https://evil.example/a").Return("", objectstore.ErrForeignURL)

		r := httptest.NewRequest(http.MethodPost, "/api/objects/copy", strings.NewReader(`{"source":"https://evil.example/a","destination":"b"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newRouter(store, admin).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		store.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("metadata and delete", func(t *testing.T) {
		t.Parallel()

		store := &MockStore{}
		store.On("Head", mock.Anything, "uploads/abc").Return(&objectstore.ObjectInfo{Key: "uploads/abc", Size: 9, ContentType: "image/png"}, nil)
		store.On("PublicURL", "uploads/abc").Return("https://cdn.example.com/uploads/abc")
		store.On("Delete", mock.Anything, "uploads/abc").Return(nil)
		router := newRouter(store, admin)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/objects/metadata/uploads/abc", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"contentType":"image/png"`)
		assert.Contains(t, w.Body.String(), `"publicUrl":"https://cdn.example.com/uploads/abc"`)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/objects/uploads/abc", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		store.AssertExpectations(t)
	})
}
