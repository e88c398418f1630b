package files

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/clientip"
	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/metrics"
	"github.com/dmitrymomot/filedeck/pkg/ratelimit"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

type UploadURLRequest struct {
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
}

type uploadURLResponse struct {
	UploadURL  string            `json:"uploadURL"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	ObjectPath string            `json:"objectPath"`
	FileName   string            `json:"fileName"`
	ExpiresAt  time.Time         `json:"expiresAt"`
}

type UploadRequest struct {
	FolderID string                `form:"folderId"`
	File     *multipart.FileHeader `file:"file"`
}

// CreateFileRequest registers an object uploaded to a presigned URL. Status
// is accepted for compatibility; stored files are always synced.
type CreateFileRequest struct {
	Name         string         `json:"name"`
	OriginalName string         `json:"originalName"`
	Size         int64          `json:"size"`
	MimeType     string         `json:"mimeType"`
	ObjectPath   string         `json:"objectPath"`
	FolderID     *uuid.UUID     `json:"folderId"`
	Status       string         `json:"status"`
	Metadata     map[string]any `json:"metadata"`
}

type SearchRequest struct {
	Query string `query:"q"`
	Type  string `query:"type"`
}

type BulkDeleteRequest struct {
	FileIDs []uuid.UUID `json:"fileIds"`
}

type RenameRequest struct {
	ID   uuid.UUID `path:"id" json:"-"`
	Name string    `json:"name"`
}

type MoveRequest struct {
	ID       uuid.UUID  `path:"id" json:"-"`
	FolderID *uuid.UUID `json:"folderId"`
}

type FileRequest struct {
	ID uuid.UUID `path:"id"`
}

func (s *Service) uploadURL(ctx handler.Context, req UploadURLRequest) handler.Response {
	ticket, err := s.files.RequestUploadURL(ctx, filemanager.UploadRequest{
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	})
	if err != nil {
		return handler.Fail(err)
	}

	headers := make(map[string]string, len(ticket.Headers))
	for k := range ticket.Headers {
		headers[k] = ticket.Headers.Get(k)
	}
	return handler.JSON(uploadURLResponse{
		UploadURL:  ticket.UploadURL,
		Method:     ticket.Method,
		Headers:    headers,
		ObjectPath: ticket.ObjectPath,
		FileName:   ticket.FileName,
		ExpiresAt:  ticket.ExpiresAt,
	})
}

func (s *Service) upload(ctx handler.Context, req UploadRequest) handler.Response {
	if form := ctx.Request().MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}
	if req.File == nil {
		return handler.Fail(handler.Detailed(handler.ErrBadRequest, "No file provided", nil))
	}
	folderID, err := parseFolderID(req.FolderID)
	if err != nil {
		return handler.Fail(err)
	}

	body, err := req.File.Open()
	if err != nil {
		return handler.Fail(err)
	}
	defer func() { _ = body.Close() }()

	in := filemanager.DirectUpload{
		Filename:    req.File.Filename,
		Size:        req.File.Size,
		ContentType: req.File.Header.Get("Content-Type"),
		Body:        body,
		FolderID:    folderID,
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		in.UserID = &user.ID
	}

	file, err := s.files.Upload(ctx, in)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(file, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) createFile(ctx handler.Context, req CreateFileRequest) handler.Response {
	switch req.Status {
	case "", db.FileStatusProcessing, db.FileStatusSynced, db.FileStatusFailed:
	default:
		return handler.Fail(handler.Detailed(handler.ErrBadRequest, "Invalid file status", nil))
	}

	in := filemanager.NewFile{
		Name:         req.Name,
		OriginalName: req.OriginalName,
		Size:         req.Size,
		MimeType:     req.MimeType,
		ObjectPath:   req.ObjectPath,
		FolderID:     req.FolderID,
		Metadata:     req.Metadata,
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		in.UploadedBy = &user.ID
	}

	file, err := s.files.CreateFile(ctx, in)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(file, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) listFiles(ctx handler.Context, _ struct{}) handler.Response {
	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(files)
}

func (s *Service) searchFiles(ctx handler.Context, req SearchRequest) handler.Response {
	files, err := s.files.SearchFiles(ctx, strings.TrimSpace(req.Query), req.Type)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(files)
}

func (s *Service) bulkDelete(ctx handler.Context, req BulkDeleteRequest) handler.Response {
	n, err := s.files.BulkDelete(ctx, req.FileIDs)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(map[string]int{"deletedCount": n})
}

func (s *Service) sync(ctx handler.Context, _ struct{}) handler.Response {
	report, err := s.files.Sync(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(map[string]int{
		"total":  report.Total,
		"synced": report.Synced,
		"failed": report.Failed,
	})
}

func (s *Service) renameFile(ctx handler.Context, req RenameRequest) handler.Response {
	file, err := s.files.RenameFile(ctx, req.ID, req.Name)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(file)
}

func (s *Service) moveFile(ctx handler.Context, req MoveRequest) handler.Response {
	file, err := s.files.MoveFile(ctx, req.ID, req.FolderID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(file)
}

func (s *Service) downloadURL(ctx handler.Context, req FileRequest) handler.Response {
	url, err := s.files.DownloadURL(ctx, req.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(map[string]string{"downloadUrl": url})
}

func (s *Service) deleteFile(ctx handler.Context, req FileRequest) handler.Response {
	if err := s.files.DeleteFile(ctx, req.ID); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}

// uploadLimitReached renders the 429 response of the upload limiter.
func (s *Service) uploadLimitReached(w http.ResponseWriter, r *http.Request, result *ratelimit.Result) {
	s.recorder.RecordUpload(metrics.UploadRateLimited, 0)
	s.logger.WarnContext(r.Context(), "upload rate limit reached",
		logger.ClientIP(clientip.FromRequest(r)),
		logger.Component("files"),
		logger.Event("upload_rate_limited"),
	)

	resp := handler.JSONError(
		handler.Detailed(handler.ErrTooManyRequests, "Too many upload attempts. Please try again later.", nil),
		handler.WithJSONMeta(map[string]any{"retryAfter": ratelimit.RetryAfterSeconds(result)}),
	)
	if err := resp.Render(w, r); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render rate limit response", logger.Error(err))
	}
}

func parseFolderID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == filemanager.RootFolder {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, handler.Detailed(handler.ErrBadRequest, "Invalid folder id", nil)
	}
	return &id, nil
}
