package objects

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/binder"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

// Store is the object storage behind the routes. *objectstore.Store satisfies it.
type Store interface {
	NewUploadKey() string
	NewUploadTarget(ctx context.Context, contentType string) (*objectstore.UploadTarget, error)
	PresignPost(ctx context.Context, key, contentType string) (*objectstore.PresignedPost, error)
	NormalizeObjectPath(raw string) (string, error)
	PublicURL(key string) string
	Open(ctx context.Context, key, rangeHeader string) (*objectstore.Object, error)
	Head(ctx context.Context, key string) (*objectstore.ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error)
	Copy(ctx context.Context, src, dst string) error
	Move(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
}

// Service serves stored objects and the admin object API.
type Service struct {
	store        Store
	validator    *security.Validator
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

// New creates the objects module.
func New(store Store, validator *security.Validator, errorHandler handler.ErrorHandler[handler.Context], log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:        store,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       log,
	}
}

// Serve returns the handler for GET /objects/*. It streams objects to any
// signed-in user.
func (s *Service) Serve() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser(handler.Responder(s.errorHandler)))
	r.Get("/*", handler.Wrap(s.serveObject,
		handler.WithBinders[handler.Context, ObjectRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ObjectRequest](s.errorHandler),
	))
	return r
}

// Handle returns the admin object API.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin(handler.Responder(s.errorHandler)))

	r.Post("/upload", handler.Wrap(s.newUpload,
		handler.WithBinders[handler.Context, NewUploadRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, NewUploadRequest](s.errorHandler),
	))
	r.Post("/presigned-post", handler.Wrap(s.presignedPost,
		handler.WithBinders[handler.Context, PresignedPostRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, PresignedPostRequest](s.errorHandler),
	))
	r.Get("/", handler.Wrap(s.list,
		handler.WithBinders[handler.Context, ListRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, ListRequest](s.errorHandler),
	))
	r.Get("/metadata/*", handler.Wrap(s.metadata,
		handler.WithBinders[handler.Context, ObjectRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ObjectRequest](s.errorHandler),
	))
	r.Put("/complete/*", handler.Wrap(s.complete,
		handler.WithBinders[handler.Context, ObjectRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ObjectRequest](s.errorHandler),
	))
	r.Post("/move", handler.Wrap(s.move,
		handler.WithBinders[handler.Context, TransferRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, TransferRequest](s.errorHandler),
	))
	r.Post("/copy", handler.Wrap(s.copy,
		handler.WithBinders[handler.Context, TransferRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, TransferRequest](s.errorHandler),
	))
	r.Delete("/*", handler.Wrap(s.delete,
		handler.WithBinders[handler.Context, ObjectRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, ObjectRequest](s.errorHandler),
	))

	return r
}
