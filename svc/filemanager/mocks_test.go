package filemanager_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
)

// MockRepository is a mock implementation of filemanager.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateFile(ctx context.Context, file *db.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockRepository) GetFile(ctx context.Context, id uuid.UUID) (*db.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockRepository) ListFiles(ctx context.Context) ([]db.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockRepository) ListFilesByFolder(ctx context.Context, folderID *uuid.UUID) ([]db.File, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockRepository) SearchFiles(ctx context.Context, s db.FileSearch) ([]db.File, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockRepository) UpdateFile(ctx context.Context, id uuid.UUID, upd db.FileUpdate) (*db.File, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockRepository) SetFileStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) DeleteFile(ctx context.Context, id uuid.UUID) (*db.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockRepository) DeleteFiles(ctx context.Context, ids []uuid.UUID) ([]db.File, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockRepository) CreateFolder(ctx context.Context, folder *db.Folder) error {
	args := m.Called(ctx, folder)
	return args.Error(0)
}

func (m *MockRepository) GetFolder(ctx context.Context, id uuid.UUID) (*db.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Folder), args.Error(1)
}

func (m *MockRepository) ListFolders(ctx context.Context) ([]db.Folder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Folder), args.Error(1)
}

func (m *MockRepository) ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]db.Folder, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Folder), args.Error(1)
}

func (m *MockRepository) UpdateFolder(ctx context.Context, id uuid.UUID, upd db.FolderUpdate) (*db.Folder, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Folder), args.Error(1)
}

func (m *MockRepository) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) IsFolderAncestor(ctx context.Context, id, ancestorID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ancestorID)
	return args.Bool(0), args.Error(1)
}

// MockObjectStore is a mock implementation of filemanager.ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) NewUploadKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockObjectStore) NewUploadTarget(ctx context.Context, contentType string) (*objectstore.UploadTarget, error) {
	args := m.Called(ctx, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.UploadTarget), args.Error(1)
}

func (m *MockObjectStore) PresignDownload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) NormalizeObjectPath(raw string) (string, error) {
	args := m.Called(raw)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Put(ctx context.Context, in objectstore.PutInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockObjectStore) Head(ctx context.Context, key string) (*objectstore.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*objectstore.ObjectInfo), args.Error(1)
}

func (m *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) ReadHead(ctx context.Context, key string, n int64) ([]byte, error) {
	args := m.Called(ctx, key, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) DeleteMany(ctx context.Context, keys []string) ([]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockRecorder is a mock implementation of filemanager.Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordUpload(outcome string, size int64) {
	m.Called(outcome, size)
}

func (m *MockRecorder) RecordSync(synced, failed int) {
	m.Called(synced, failed)
}
