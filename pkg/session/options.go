package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/filedeck/pkg/cookie"
)

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the session store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTransport replaces the default cookie transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithMaxAge sets the session lifetime.
func WithMaxAge(ttl time.Duration) Option {
	return func(m *Manager) {
		m.config.MaxAge = ttl
	}
}

// WithCleanupInterval sets the interval of expired-session cleanup.
func WithCleanupInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.config.CleanupInterval = interval
	}
}

// WithFingerprint binds sessions to the fingerprint computed by fn.
func WithFingerprint(fn FingerprintFunc) Option {
	return func(m *Manager) {
		m.fingerprintFunc = fn
	}
}

// WithCookieManager sets the cookie manager for the default transport.
func WithCookieManager(cookieMgr *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieManager = cookieMgr
		m.cookieOptions = opts
	}
}

// WithLogger sets the logger for background failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
