package files_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

// MockFileManager is a mock implementation of files.FileManager.
type MockFileManager struct {
	mock.Mock
}

func (m *MockFileManager) RequestUploadURL(ctx context.Context, req filemanager.UploadRequest) (*filemanager.UploadTicket, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filemanager.UploadTicket), args.Error(1)
}

func (m *MockFileManager) Upload(ctx context.Context, in filemanager.DirectUpload) (*db.File, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockFileManager) CreateFile(ctx context.Context, in filemanager.NewFile) (*db.File, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockFileManager) ListFiles(ctx context.Context) ([]db.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockFileManager) SearchFiles(ctx context.Context, query, category string) ([]db.File, error) {
	args := m.Called(ctx, query, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.File), args.Error(1)
}

func (m *MockFileManager) RenameFile(ctx context.Context, id uuid.UUID, name string) (*db.File, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockFileManager) MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*db.File, error) {
	args := m.Called(ctx, id, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.File), args.Error(1)
}

func (m *MockFileManager) DeleteFile(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileManager) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockFileManager) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockFileManager) Sync(ctx context.Context) (*filemanager.SyncReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filemanager.SyncReport), args.Error(1)
}

func (m *MockFileManager) ListFolders(ctx context.Context) ([]db.Folder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Folder), args.Error(1)
}

func (m *MockFileManager) FolderContents(ctx context.Context, ref string) (*filemanager.FolderContents, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filemanager.FolderContents), args.Error(1)
}

func (m *MockFileManager) CreateFolder(ctx context.Context, in filemanager.NewFolder) (*db.Folder, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Folder), args.Error(1)
}

func (m *MockFileManager) UpdateFolder(ctx context.Context, id uuid.UUID, ch filemanager.FolderChanges) (*db.Folder, error) {
	args := m.Called(ctx, id, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Folder), args.Error(1)
}

func (m *MockFileManager) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecorder records upload outcomes.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordUpload(outcome string, size int64) {
	m.Called(outcome, size)
}
