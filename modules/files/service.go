package files

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/binder"
	"github.com/dmitrymomot/filedeck/pkg/fingerprint"
	"github.com/dmitrymomot/filedeck/pkg/ratelimit"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

// uploadKeyPrefix scopes upload limiter keys in a shared store.
const uploadKeyPrefix = "upload:"

// maxUploadURLBody bounds the upload-url body read before rate limiting.
const maxUploadURLBody = 64 << 10

// DefaultMaxUploadBytes bounds a direct upload request: the largest file
// size limit plus room for the multipart envelope.
const DefaultMaxUploadBytes int64 = 201 << 20

// FileManager is the use-case layer behind the routes.
// *filemanager.Service satisfies it.
type FileManager interface {
	RequestUploadURL(ctx context.Context, req filemanager.UploadRequest) (*filemanager.UploadTicket, error)
	Upload(ctx context.Context, in filemanager.DirectUpload) (*db.File, error)
	CreateFile(ctx context.Context, in filemanager.NewFile) (*db.File, error)
	ListFiles(ctx context.Context) ([]db.File, error)
	SearchFiles(ctx context.Context, query, category string) ([]db.File, error)
	RenameFile(ctx context.Context, id uuid.UUID, name string) (*db.File, error)
	MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*db.File, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error)
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	Sync(ctx context.Context) (*filemanager.SyncReport, error)

	ListFolders(ctx context.Context) ([]db.Folder, error)
	FolderContents(ctx context.Context, ref string) (*filemanager.FolderContents, error)
	CreateFolder(ctx context.Context, in filemanager.NewFolder) (*db.Folder, error)
	UpdateFolder(ctx context.Context, id uuid.UUID, ch filemanager.FolderChanges) (*db.Folder, error)
	DeleteFolder(ctx context.Context, id uuid.UUID) error
}

// UploadRecorder counts upload outcomes. *metrics.Metrics satisfies it.
type UploadRecorder interface {
	RecordUpload(outcome string, size int64)
}

// Service serves the /files and /folders routes.
type Service struct {
	files          FileManager
	errorHandler   handler.ErrorHandler[handler.Context]
	uploadLimiter  ratelimit.Limiter
	recorder       UploadRecorder
	logger         *slog.Logger
	maxUploadBytes int64
}

// Option configures a Service.
type Option func(*Service)

// WithUploadLimiter throttles the upload endpoints per client.
func WithUploadLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) {
		s.uploadLimiter = l
	}
}

// WithRecorder sets the upload metrics recorder.
func WithRecorder(r UploadRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxUploadBytes limits the body of direct uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// New creates the files module.
func New(files FileManager, errorHandler handler.ErrorHandler[handler.Context], opts ...Option) *Service {
	s := &Service{
		files:          files,
		errorHandler:   errorHandler,
		recorder:       nopRecorder{},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopRecorder struct{}

func (nopRecorder) RecordUpload(string, int64) {}

// Handle returns the /files and /folders routes. Every route requires an
// admin or guest user.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.RequireUser(handler.Responder(s.errorHandler)))

	r.Route("/files", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.uploadLimiter != nil {
				r.Use(ratelimit.Middleware(s.uploadLimiter, ratelimit.Prefixed(uploadKeyPrefix, fingerprint.UploadClientID),
					ratelimit.WithSkipFunc(skipIncompleteUploadURL),
					ratelimit.WithOnLimitReached(s.uploadLimitReached),
					ratelimit.WithLogger(s.logger),
				))
			}
			r.Post("/upload-url", handler.Wrap(s.uploadURL,
				handler.WithBinders[handler.Context, UploadURLRequest](binder.JSON()),
				handler.WithErrorHandler[handler.Context, UploadURLRequest](s.errorHandler),
			))
			r.With(middleware.RequestSize(s.maxUploadBytes)).Post("/upload", handler.Wrap(s.upload,
				handler.WithBinders[handler.Context, UploadRequest](binder.Form()),
				handler.WithErrorHandler[handler.Context, UploadRequest](s.errorHandler),
			))
		})

		r.Post("/", handler.Wrap(s.createFile,
			handler.WithBinders[handler.Context, CreateFileRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, CreateFileRequest](s.errorHandler),
		))
		r.Get("/", handler.Wrap(s.listFiles,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Get("/search", handler.Wrap(s.searchFiles,
			handler.WithBinders[handler.Context, SearchRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, SearchRequest](s.errorHandler),
		))
		r.Post("/bulk-delete", handler.Wrap(s.bulkDelete,
			handler.WithBinders[handler.Context, BulkDeleteRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, BulkDeleteRequest](s.errorHandler),
		))
		r.Post("/sync", handler.Wrap(s.sync,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Patch("/{id}/rename", handler.Wrap(s.renameFile,
			handler.WithBinders[handler.Context, RenameRequest](binder.Path(chi.URLParam), binder.JSON()),
			handler.WithErrorHandler[handler.Context, RenameRequest](s.errorHandler),
		))
		r.Patch("/{id}/move", handler.Wrap(s.moveFile,
			handler.WithBinders[handler.Context, MoveRequest](binder.Path(chi.URLParam), binder.JSON()),
			handler.WithErrorHandler[handler.Context, MoveRequest](s.errorHandler),
		))
		r.Get("/{id}/download-url", handler.Wrap(s.downloadURL,
			handler.WithBinders[handler.Context, FileRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, FileRequest](s.errorHandler),
		))
		r.Delete("/{id}", handler.Wrap(s.deleteFile,
			handler.WithBinders[handler.Context, FileRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, FileRequest](s.errorHandler),
		))
	})

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", handler.Wrap(s.listFolders,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Post("/", handler.Wrap(s.createFolder,
			handler.WithBinders[handler.Context, CreateFolderRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, CreateFolderRequest](s.errorHandler),
		))
		r.Get("/{id}/contents", handler.Wrap(s.folderContents,
			handler.WithBinders[handler.Context, FolderContentsRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, FolderContentsRequest](s.errorHandler),
		))
		r.Patch("/{id}", handler.Wrap(s.updateFolder,
			handler.WithBinders[handler.Context, UpdateFolderRequest](binder.Path(chi.URLParam), binder.JSON()),
			handler.WithErrorHandler[handler.Context, UpdateFolderRequest](s.errorHandler),
		))
		r.Delete("/{id}", handler.Wrap(s.deleteFolder,
			handler.WithBinders[handler.Context, FolderRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, FolderRequest](s.errorHandler),
		))
	})

	return r
}

// skipIncompleteUploadURL exempts upload-url requests that lack a required
// field from the upload limit. The handler rejects them with 400. The body is
// restored for the binder.
func skipIncompleteUploadURL(r *http.Request) bool {
	if !strings.HasSuffix(r.URL.Path, "/upload-url") || r.Body == nil {
		return false
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxUploadURLBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil || len(head) == maxUploadURLBody {
		return false
	}

	var req UploadURLRequest
	if json.Unmarshal(head, &req) != nil {
		return true
	}
	return req.FileName == "" || req.FileSize == 0 || req.ContentType == ""
}
