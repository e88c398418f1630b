package session

import "time"

// Config holds session configuration.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// HeaderName carries the token for non-browser clients. Empty disables it.
	HeaderName string `env:"SESSION_HEADER_NAME" envDefault:"X-Session-Token"`

	MaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`

	// ActivityUpdateThreshold is the minimum time between activity updates.
	ActivityUpdateThreshold time.Duration `env:"SESSION_ACTIVITY_UPDATE_THRESHOLD" envDefault:"5m"`

	// CleanupInterval for expired sessions, 0 disables the cleanup loop.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// Store selects the backend: postgres, redis or memory.
	Store string `env:"SESSION_STORE" envDefault:"postgres"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:              "sid",
		HeaderName:              "X-Session-Token",
		MaxAge:                  30 * 24 * time.Hour,
		ActivityUpdateThreshold: 5 * time.Minute,
		CleanupInterval:         5 * time.Minute,
		Store:                   "postgres",
	}
}

// NewFromConfig creates a Manager from cfg. A store and a cookie manager
// must be supplied through opts.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
