package account_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/modules/account"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/session"
)

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) Register(ctx context.Context, username, password string) (*auth.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAccounts) Login(ctx context.Context, username, password string) (*auth.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockAccounts) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, data map[string]any) (*session.Session, error) {
	args := m.Called(ctx, w, r, userID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessions) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	args := m.Called(ctx, w, r)
	return args.Error(0)
}

func (m *MockSessions) DestroyUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newRouter(accounts *MockAccounts, sessions *MockSessions, user *auth.User) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := handler.NewErrorHandler(log, account.MapErrors)
	svc := account.NewPasswordService(accounts, sessions, eh, log)
	router := account.Router(account.RouterOptions{Password: svc})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != nil {
			r = r.WithContext(auth.WithUser(r.Context(), user))
		}
		router.ServeHTTP(w, r)
	})
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *handler.ErrorDetail `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates guest and starts session", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Username: "alice", Role: auth.RoleGuest}
		accounts := &MockAccounts{}
		sessions := &MockSessions{}
		accounts.On("Register", mock.Anything, "alice", "secret1").Return(user, nil)
		sessions.On("Login", mock.Anything, mock.Anything, mock.Anything, user.ID, map[string]any{"role": "guest"}).
			Return(&session.Session{Token: "tok"}, nil)

		w := httptest.NewRecorder()
		newRouter(accounts, sessions, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1"}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"alice"`)
		assert.NotContains(t, w.Body.String(), "password")
		accounts.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("field errors become validation error", func(t *testing.T) {
		t.Parallel()

		accounts := &MockAccounts{}
		accounts.On("Register", mock.Anything, "al", "x").
			Return(nil, auth.FieldErrors{"username": {"Username must be at least 3 characters"}})

		w := httptest.NewRecorder()
		newRouter(accounts, &MockSessions{}, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", `{"username":"al","password":"x"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, "validation_error", env.Error.Code)
		assert.Equal(t, []string{"Username must be at least 3 characters"}, env.Error.Details["username"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		t.Parallel()

		accounts := &MockAccounts{}
		accounts.On("Register", mock.Anything, "alice", "secret1").Return(nil, auth.ErrUsernameTaken)

		w := httptest.NewRecorder()
		newRouter(accounts, &MockSessions{}, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1"}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "conflict", decode(t, w).Error.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockAccounts{}, &MockSessions{}, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1","role":"admin"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Username: "admin", Role: auth.RoleAdmin}
		accounts := &MockAccounts{}
		sessions := &MockSessions{}
		accounts.On("Login", mock.Anything, "admin", "secret1").Return(user, nil)
		sessions.On("Login", mock.Anything, mock.Anything, mock.Anything, user.ID, mock.Anything).
			Return(&session.Session{Token: "tok"}, nil)

		w := httptest.NewRecorder()
		newRouter(accounts, sessions, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/login", `{"username":"admin","password":"secret1"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"admin"`)
		sessions.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		t.Parallel()

		accounts := &MockAccounts{}
		accounts.On("Login", mock.Anything, "admin", "nope").Return(nil, auth.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		newRouter(accounts, &MockSessions{}, nil).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/login", `{"username":"admin","password":"nope"}`))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decode(t, w)
		assert.Equal(t, "authentication_required", env.Error.Code)
		assert.Equal(t, "Invalid username or password", env.Error.Message)
	})

	t.Run("requires json body", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("username=admin"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		newRouter(&MockAccounts{}, &MockSessions{}, nil).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	sessions := &MockSessions{}
	sessions.On("Destroy", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	newRouter(&MockAccounts{}, sessions, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	sessions.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockAccounts{}, &MockSessions{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "authentication_required", decode(t, w).Error.Code)
	})

	t.Run("current user", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Username: "bob", Role: auth.RoleGuest}
		w := httptest.NewRecorder()
		newRouter(&MockAccounts{}, &MockSessions{}, user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data struct {
				User auth.User `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, user.ID, body.Data.User.ID)
		assert.Equal(t, "bob", body.Data.User.Username)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	const body = `{"currentPassword":"secret1","newPassword":"secret2"}`

	t.Run("guest is forbidden", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Role: auth.RoleGuest}
		w := httptest.NewRecorder()
		newRouter(&MockAccounts{}, &MockSessions{}, user).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/change-password", body))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin rotates sessions", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Role: auth.RoleAdmin}
		accounts := &MockAccounts{}
		sessions := &MockSessions{}
		accounts.On("ChangePassword", mock.Anything, user.ID, "secret1", "secret2").Return(nil)
		sessions.On("DestroyUser", mock.Anything, user.ID).Return(nil)
		sessions.On("Login", mock.Anything, mock.Anything, mock.Anything, user.ID, mock.Anything).
			Return(&session.Session{Token: "new"}, nil)

		w := httptest.NewRecorder()
		newRouter(accounts, sessions, user).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/change-password", body))

		assert.Equal(t, http.StatusNoContent, w.Code)
		accounts.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		t.Parallel()

		user := &auth.User{ID: uuid.New(), Role: auth.RoleAdmin}
		accounts := &MockAccounts{}
		sessions := &MockSessions{}
		accounts.On("ChangePassword", mock.Anything, user.ID, "secret1", "secret2").Return(auth.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		newRouter(accounts, sessions, user).ServeHTTP(w, jsonRequest(http.MethodPost, "/auth/change-password", body))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		sessions.AssertNotCalled(t, "DestroyUser", mock.Anything, mock.Anything)
	})
}
