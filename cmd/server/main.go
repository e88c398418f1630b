package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/modules/account"
	"github.com/dmitrymomot/filedeck/modules/files"
	"github.com/dmitrymomot/filedeck/modules/objects"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/clientip"
	"github.com/dmitrymomot/filedeck/pkg/config"
	"github.com/dmitrymomot/filedeck/pkg/cookie"
	"github.com/dmitrymomot/filedeck/pkg/fingerprint"
	"github.com/dmitrymomot/filedeck/pkg/httpsec"
	"github.com/dmitrymomot/filedeck/pkg/httpserver"
	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/metrics"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/pg"
	"github.com/dmitrymomot/filedeck/pkg/ratelimit"
	"github.com/dmitrymomot/filedeck/pkg/redis"
	"github.com/dmitrymomot/filedeck/pkg/requestid"
	"github.com/dmitrymomot/filedeck/pkg/security"
	"github.com/dmitrymomot/filedeck/pkg/session"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

type appConfig struct {
	Logger       logger.Config
	HTTP         httpserver.Config
	Postgres     pg.Config
	Redis        redis.Config
	S3           objectstore.Config
	Security     security.Config
	RateLimit    ratelimit.Config
	Cookie       cookie.Config
	Session      session.Config
	Auth         auth.Config
	ClientIP     clientip.Config
	MaxUpload    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"210763776"`
	ReadyTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s"`
}

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithContextExtractors(requestid.LoggerExtractor()))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg.Postgres, log); err != nil {
		return err
	}
	queries := db.New(pool)

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}

	var redisClient *goredis.Client
	if cfg.Session.Store == "redis" || cfg.RateLimit.Store == "redis" {
		redisClient, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(redisClient)})
	}

	store, err := objectstore.New(ctx, cfg.S3)
	if err != nil {
		return err
	}

	validator, err := security.NewFromConfig(cfg.Security)
	if err != nil {
		return err
	}

	limiterStore, closeLimiter := newLimiterStore(cfg.RateLimit, redisClient)
	defer closeLimiter()
	uploadLimiter, err := ratelimit.NewFixedWindow(limiterStore, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	if err != nil {
		return err
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return err
	}

	sessions := session.NewFromConfig(cfg.Session,
		session.WithStore(newSessionStore(cfg.Session, queries, redisClient)),
		session.WithCookieManager(cookies),
		session.WithFingerprint(fingerprint.Generate),
		session.WithLogger(log),
	)
	defer func() { _ = sessions.Close() }()

	accounts := auth.NewFromConfig(cfg.Auth, db.NewUserStore(queries), auth.WithLogger(log))
	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		if _, created, err := accounts.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return err
		} else if created {
			log.InfoContext(ctx, "admin account created", slog.String("username", cfg.Auth.AdminUsername))
		}
	}

	m := metrics.New("filedeck")
	manager := filemanager.New(queries, store, validator,
		filemanager.WithLogger(log),
		filemanager.WithRecorder(m),
	)

	errorHandler := handler.NewErrorHandler(log, account.MapErrors, files.MapErrors, objects.MapErrors)
	objectRoutes := objects.New(store, validator, errorHandler, log)

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.NewFromConfig(cfg.ClientIP).Middleware,
		httpsec.Recoverer(log),
		httpsec.Headers(),
		httpsec.SecurityEvents(log, m),
		m.Middleware,
		sessions.Middleware,
		accounts.Middleware,
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.ReadyTimeout, checks...))
	r.Handle("/metrics", m.Handler())

	api := account.Router(account.RouterOptions{
		Password: account.NewPasswordService(accounts, sessions, errorHandler, log),
	})
	api.Mount("/objects", objectRoutes.Handle())
	api.Mount("/", files.New(manager, errorHandler,
		files.WithUploadLimiter(uploadLimiter),
		files.WithRecorder(m),
		files.WithLogger(log),
		files.WithMaxUploadBytes(cfg.MaxUpload),
	).Handle())

	r.Mount("/api", api)
	r.Mount("/objects", objectRoutes.Serve())

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	log.InfoContext(ctx, "starting server", slog.String("addr", cfg.HTTP.Addr))
	if err := server.Run(ctx, r); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLimiterStore(cfg ratelimit.Config, client *goredis.Client) (ratelimit.Store, func()) {
	if cfg.Store == "redis" && client != nil {
		return ratelimit.NewRedisStore(client, cfg.KeyPrefix), func() {}
	}
	mem := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(cfg.CleanupInterval))
	return mem, func() { _ = mem.Close() }
}

func newSessionStore(cfg session.Config, queries *db.Queries, client *goredis.Client) session.Store {
	switch cfg.Store {
	case "redis":
		if client != nil {
			return session.NewRedisStore(client, "session:")
		}
	case "memory":
		return session.NewMemoryStore()
	}
	return db.NewSessionStore(queries)
}
