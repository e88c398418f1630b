package filemanager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/metrics"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

// UploadRequest describes a file the client wants to upload to a presigned URL.
type UploadRequest struct {
	FileName    string
	FileSize    int64
	ContentType string
}

// UploadTicket is a presigned upload target for a validated file.
type UploadTicket struct {
	*objectstore.UploadTarget
	FileName string
}

// DirectUpload is a file streamed through the server.
type DirectUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
	FolderID    *uuid.UUID
	UserID      *uuid.UUID
}

// NewFile registers an object uploaded to a presigned URL.
type NewFile struct {
	Name         string
	OriginalName string
	Size         int64
	MimeType     string
	ObjectPath   string
	FolderID     *uuid.UUID
	UploadedBy   *uuid.UUID
	Metadata     map[string]any
}

// SyncReport summarises a storage sync.
type SyncReport struct {
	Total  int
	Synced int
	Failed int
}

// RequestUploadURL validates the file metadata and presigns an upload to a
// fresh object key.
func (s *Service) RequestUploadURL(ctx context.Context, req UploadRequest) (*UploadTicket, error) {
	if req.FileName == "" || req.FileSize == 0 || req.ContentType == "" {
		return nil, fmt.Errorf("%w: fileName, fileSize, and contentType are required", ErrInvalidInput)
	}

	res := s.validator.ValidateFile(req.FileName, req.FileSize, req.ContentType, nil)
	if !res.Valid {
		s.recorder.RecordUpload(metrics.UploadRejected, 0)
		return nil, res.Err()
	}

	target, err := s.objects.NewUploadTarget(ctx, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	s.logger.InfoContext(ctx, "upload url issued",
		logger.ObjectKey(target.Key),
		logger.Component("filemanager"),
	)
	return &UploadTicket{UploadTarget: target, FileName: res.SanitizedFilename}, nil
}

// Upload validates and stores a file streamed through the server and creates
// its record. Only the leading bytes are buffered for content inspection.
func (s *Service) Upload(ctx context.Context, in DirectUpload) (*db.File, error) {
	if in.Body == nil {
		return nil, fmt.Errorf("%w: file body is required", ErrInvalidInput)
	}

	limit := s.validator.InspectLimit(in.ContentType)
	if in.Size > 0 && in.Size < limit {
		limit = in.Size
	}
	head, err := readHead(in.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	res := s.validator.ValidateFile(in.Filename, in.Size, in.ContentType, head)
	if !res.Valid {
		s.recorder.RecordUpload(metrics.UploadRejected, 0)
		return nil, res.Err()
	}
	if err := s.ensureFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}

	key := s.objects.NewUploadKey()
	err = s.objects.Put(ctx, objectstore.PutInput{
		Key:         key,
		Body:        io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), in.Size),
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-name": res.SanitizedFilename},
	})
	if err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	file := &db.File{
		Name:         res.SanitizedFilename,
		OriginalName: in.Filename,
		Size:         in.Size,
		MimeType:     in.ContentType,
		ObjectPath:   objectstore.ObjectPath(key),
		UploadedAt:   s.now().UTC(),
		Status:       db.FileStatusSynced,
		FolderID:     in.FolderID,
		UploadedBy:   in.UserID,
		Metadata:     map[string]any{"detected_mime_type": res.DetectedMIMEType},
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		s.deleteObject(ctx, key)
		return nil, s.fileErr(err)
	}

	s.recorder.RecordUpload(metrics.UploadAccepted, in.Size)
	s.logger.InfoContext(ctx, "file uploaded",
		logger.FileID(file.ID),
		logger.ObjectKey(key),
		logger.Component("filemanager"),
	)
	return file, nil
}

// CreateFile registers an object uploaded to a presigned URL. The object must
// exist, its stored size must equal the declared size and its leading bytes
// must match the declared type, otherwise the object is removed and the file
// rejected.
func (s *Service) CreateFile(ctx context.Context, in NewFile) (*db.File, error) {
	if in.Name == "" || in.ObjectPath == "" {
		return nil, fmt.Errorf("%w: name and objectPath are required", ErrInvalidInput)
	}

	res := s.validator.ValidateFile(in.Name, in.Size, in.MimeType, nil)
	if !res.Valid {
		s.recorder.RecordUpload(metrics.UploadRejected, 0)
		return nil, res.Err()
	}

	objectPath, err := s.objects.NormalizeObjectPath(in.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	key, err := objectstore.KeyFromObjectPath(objectPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	info, err := s.objects.Head(ctx, key)
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		return nil, ErrObjectMissing
	}
	if err != nil {
		return nil, fmt.Errorf("check object: %w", err)
	}
	if info.Size != in.Size {
		s.deleteObject(ctx, key)
		s.recorder.RecordUpload(metrics.UploadRejected, 0)
		return nil, &security.ValidationError{
			Kind:     security.ErrValidationFailed,
			Messages: []string{fmt.Sprintf("Uploaded file size %d doesn't match declared size %d", info.Size, in.Size)},
		}
	}

	head, err := s.objects.ReadHead(ctx, key, s.validator.InspectLimit(in.MimeType))
	if err != nil {
		return nil, fmt.Errorf("read object head: %w", err)
	}
	if cr := s.validator.ValidateContent(head, in.MimeType); !cr.Valid {
		s.deleteObject(ctx, key)
		s.recorder.RecordUpload(metrics.UploadRejected, 0)
		return nil, &security.ValidationError{Kind: security.ErrValidationFailed, Messages: cr.Errors}
	}
	if err := s.ensureFolder(ctx, in.FolderID); err != nil {
		return nil, err
	}

	originalName := in.OriginalName
	if originalName == "" {
		originalName = in.Name
	}
	file := &db.File{
		Name:         res.SanitizedFilename,
		OriginalName: originalName,
		Size:         in.Size,
		MimeType:     in.MimeType,
		ObjectPath:   objectPath,
		UploadedAt:   s.now().UTC(),
		Status:       db.FileStatusSynced,
		FolderID:     in.FolderID,
		UploadedBy:   in.UploadedBy,
		Metadata:     in.Metadata,
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		return nil, s.fileErr(err)
	}

	s.recorder.RecordUpload(metrics.UploadAccepted, in.Size)
	s.logger.InfoContext(ctx, "file registered",
		logger.FileID(file.ID),
		logger.ObjectKey(key),
		logger.Component("filemanager"),
	)
	return file, nil
}

// ListFiles returns every file, newest first.
func (s *Service) ListFiles(ctx context.Context) ([]db.File, error) {
	return s.repo.ListFiles(ctx)
}

// GetFile returns a file record.
func (s *Service) GetFile(ctx context.Context, id uuid.UUID) (*db.File, error) {
	file, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, s.fileErr(err)
	}
	return file, nil
}

// SearchFiles returns files whose original name contains query and whose
// type belongs to category. An unknown category matches nothing.
func (s *Service) SearchFiles(ctx context.Context, query, category string) ([]db.File, error) {
	mimeTypes, ok := CategoryMIMETypes(category)
	if !ok {
		return []db.File{}, nil
	}
	return s.repo.SearchFiles(ctx, db.FileSearch{Query: query, MimeTypes: mimeTypes})
}

// RenameFile validates name and stores its sanitized form.
func (s *Service) RenameFile(ctx context.Context, id uuid.UUID, name string) (*db.File, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	fn := s.validator.ValidateFilename(name)
	if !fn.Valid {
		return nil, &security.ValidationError{Kind: security.ErrValidationFailed, Messages: fn.Errors}
	}

	file, err := s.repo.UpdateFile(ctx, id, db.FileUpdate{Name: &fn.Sanitized})
	if err != nil {
		return nil, s.fileErr(err)
	}
	return file, nil
}

// MoveFile moves a file into folderID, or to the root when folderID is nil.
func (s *Service) MoveFile(ctx context.Context, id uuid.UUID, folderID *uuid.UUID) (*db.File, error) {
	if err := s.ensureFolder(ctx, folderID); err != nil {
		return nil, err
	}

	upd := db.FileUpdate{FolderID: folderID, ClearFolder: folderID == nil}
	file, err := s.repo.UpdateFile(ctx, id, upd)
	if err != nil {
		return nil, s.fileErr(err)
	}
	return file, nil
}

// DeleteFile removes the record and then its object. Failing to remove the
// object does not fail the call.
func (s *Service) DeleteFile(ctx context.Context, id uuid.UUID) error {
	file, err := s.repo.DeleteFile(ctx, id)
	if err != nil {
		return s.fileErr(err)
	}

	if key, err := objectstore.KeyFromObjectPath(file.ObjectPath); err == nil {
		s.deleteObject(ctx, key)
	}
	s.logger.InfoContext(ctx, "file deleted",
		logger.FileID(file.ID),
		logger.Component("filemanager"),
	)
	return nil
}

// BulkDelete removes the given files and their objects and returns how many
// records were deleted. Unknown IDs are ignored.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	files, err := s.repo.DeleteFiles(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete files: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		if key, err := objectstore.KeyFromObjectPath(f.ObjectPath); err == nil {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		failed, err := s.objects.DeleteMany(ctx, keys)
		if err != nil || len(failed) > 0 {
			s.logger.WarnContext(ctx, "bulk object delete incomplete",
				logger.Error(err),
				logger.Component("filemanager"),
				logger.Event("bulk_delete"),
				"failed_keys", failed,
			)
		}
	}
	return len(files), nil
}

// DownloadURL returns a presigned GET URL for a file.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	file, err := s.GetFile(ctx, id)
	if err != nil {
		return "", err
	}
	key, err := objectstore.KeyFromObjectPath(file.ObjectPath)
	if err != nil {
		return "", fmt.Errorf("file %s: %w", id, err)
	}
	return s.objects.PresignDownload(ctx, key)
}

// Sync checks that every record's object is still stored and sets the record
// status to synced or failed accordingly.
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	files, err := s.repo.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &SyncReport{Total: len(files)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := db.FileStatusFailed
		if s.objectStored(ctx, f) {
			status = db.FileStatusSynced
			report.Synced++
		} else {
			report.Failed++
		}

		if f.Status == status {
			continue
		}
		if err := s.repo.SetFileStatus(ctx, f.ID, status); err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("update file %s status: %w", f.ID, err)
		}
	}

	s.recorder.RecordSync(report.Synced, report.Failed)
	s.logger.InfoContext(ctx, "storage sync finished",
		logger.Component("filemanager"),
		logger.Duration(time.Since(start)),
		"total", report.Total,
		"synced", report.Synced,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *Service) objectStored(ctx context.Context, f db.File) bool {
	key, err := objectstore.KeyFromObjectPath(f.ObjectPath)
	if err != nil {
		return false
	}
	ok, err := s.objects.Exists(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "object check failed",
			logger.Error(err),
			logger.FileID(f.ID),
			logger.ObjectKey(key),
		)
		return false
	}
	return ok
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "object delete failed",
			logger.Error(err),
			logger.ObjectKey(key),
			logger.Component("filemanager"),
		)
	}
}

func (s *Service) ensureFolder(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.repo.GetFolder(ctx, *id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUnknownFolder
		}
		return err
	}
	return nil
}

func (s *Service) fileErr(err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return ErrFileNotFound
	case errors.Is(err, db.ErrInvalidReference):
		return ErrUnknownFolder
	default:
		return err
	}
}

// readHead reads up to n bytes from r. A short read is not an error.
func readHead(r io.Reader, n int64) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:read], nil
}
