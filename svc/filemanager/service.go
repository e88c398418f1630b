package filemanager

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

// Repository is the record store used by Service. *db.Queries satisfies it.
type Repository interface {
	CreateFile(ctx context.Context, file *db.File) error
	GetFile(ctx context.Context, id uuid.UUID) (*db.File, error)
	ListFiles(ctx context.Context) ([]db.File, error)
	ListFilesByFolder(ctx context.Context, folderID *uuid.UUID) ([]db.File, error)
	SearchFiles(ctx context.Context, s db.FileSearch) ([]db.File, error)
	UpdateFile(ctx context.Context, id uuid.UUID, upd db.FileUpdate) (*db.File, error)
	SetFileStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteFile(ctx context.Context, id uuid.UUID) (*db.File, error)
	DeleteFiles(ctx context.Context, ids []uuid.UUID) ([]db.File, error)

	CreateFolder(ctx context.Context, folder *db.Folder) error
	GetFolder(ctx context.Context, id uuid.UUID) (*db.Folder, error)
	ListFolders(ctx context.Context) ([]db.Folder, error)
	ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]db.Folder, error)
	UpdateFolder(ctx context.Context, id uuid.UUID, upd db.FolderUpdate) (*db.Folder, error)
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	IsFolderAncestor(ctx context.Context, id, ancestorID uuid.UUID) (bool, error)
}

// ObjectStore is the blob storage used by Service. *objectstore.Store satisfies it.
type ObjectStore interface {
	NewUploadKey() string
	NewUploadTarget(ctx context.Context, contentType string) (*objectstore.UploadTarget, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	NormalizeObjectPath(raw string) (string, error)
	Put(ctx context.Context, in objectstore.PutInput) error
	Head(ctx context.Context, key string) (*objectstore.ObjectInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
	ReadHead(ctx context.Context, key string, n int64) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) ([]string, error)
}

// Recorder receives upload and sync counters. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordUpload(outcome string, size int64)
	RecordSync(synced, failed int)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpload(string, int64) {}
func (nopRecorder) RecordSync(int, int)        {}

// Service implements file and folder management.
type Service struct {
	repo      Repository
	objects   ObjectStore
	validator *security.Validator
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides the time source used for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service.
func New(repo Repository, objects ObjectStore, validator *security.Validator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		objects:   objects,
		validator: validator,
		recorder:  nopRecorder{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
