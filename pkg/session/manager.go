package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/pkg/cookie"
	"github.com/dmitrymomot/filedeck/pkg/logger"
)

// FingerprintFunc derives a device fingerprint from the request.
type FingerprintFunc func(r *http.Request) string

// Manager creates, resolves and destroys sessions.
type Manager struct {
	store           Store
	transport       Transport
	config          Config
	fingerprintFunc FingerprintFunc
	cookieManager   *cookie.Manager
	cookieOptions   []cookie.Option
	logger          *slog.Logger
	activityChan    chan activityUpdate
	done            chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

type activityUpdate struct {
	token string
	time  time.Time
}

// New creates a Manager. It panics when neither a transport nor a cookie
// manager is configured. Without a store, sessions are kept in memory.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		logger:       slog.Default(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.transport == nil {
		if m.cookieManager == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		cookieTransport := NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
		if m.config.HeaderName != "" {
			m.transport = NewCompositeTransport(cookieTransport, NewHeaderTransport(m.config.HeaderName))
		} else {
			m.transport = cookieTransport
		}
	}

	m.wg.Add(1)
	go m.activityWorker()
	if m.config.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(m.config.CleanupInterval)
	}

	return m
}

// Get returns the valid session of the request.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := m.validate(session, r); err != nil {
		return nil, err
	}
	return session, nil
}

// Login starts an authenticated session for userID. Any session presented
// with the request is destroyed, so the token always rotates.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID, data map[string]any) (*Session, error) {
	if token, err := m.transport.GetToken(r); err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	var fingerprint string
	if m.fingerprintFunc != nil {
		fingerprint = m.fingerprintFunc(r)
	}

	session := NewSession(token, &userID, fingerprint, m.config.MaxAge)
	for k, v := range data {
		session.Set(k, v)
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	if err := m.transport.SetToken(w, session.Token, m.config.MaxAge); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}
	return session, nil
}

// Destroy deletes the session of the request and clears the token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil && token != "" {
		if err := m.store.Delete(ctx, token); err != nil {
			return err
		}
	}
	return m.transport.ClearToken(w)
}

// DestroyUser deletes every session of userID.
func (m *Manager) DestroyUser(ctx context.Context, userID uuid.UUID) error {
	store, ok := m.store.(StoreWithCleanup)
	if !ok {
		return ErrCleanupUnsupported
	}
	return store.DeleteByUserID(ctx, userID.String())
}

// Close stops the background workers, flushing queued activity updates.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
	return nil
}

func (m *Manager) validate(session *Session, r *http.Request) error {
	if session.IsExpired() {
		return ErrSessionExpired
	}
	if m.fingerprintFunc != nil && !session.ValidateFingerprint(m.fingerprintFunc(r)) {
		return ErrInvalidSession
	}
	return nil
}

func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return time.Since(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

// queueActivityUpdate never blocks; updates are dropped when the queue is full.
func (m *Manager) queueActivityUpdate(token string) {
	select {
	case m.activityChan <- activityUpdate{token: token, time: time.Now()}:
	default:
	}
}

func (m *Manager) activityWorker() {
	defer m.wg.Done()
	for {
		select {
		case update := <-m.activityChan:
			m.applyActivity(update)
		case <-m.done:
			for {
				select {
				case update := <-m.activityChan:
					m.applyActivity(update)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) applyActivity(update activityUpdate) {
	err := m.store.UpdateActivity(context.Background(), update.token, update.time)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("failed to update session activity", logger.Error(err), logger.Component("session"))
	}
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.store.DeleteExpired(context.Background()); err != nil {
				m.logger.Error("failed to delete expired sessions", logger.Error(err), logger.Component("session"))
			}
		case <-m.done:
			return
		}
	}
}

// generateToken returns 32 random bytes, base64url encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
