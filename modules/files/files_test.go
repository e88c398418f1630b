package files_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/modules/account"
	"github.com/dmitrymomot/filedeck/modules/files"
	"github.com/dmitrymomot/filedeck/pkg/auth"
	"github.com/dmitrymomot/filedeck/pkg/metrics"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/ratelimit"
	"github.com/dmitrymomot/filedeck/pkg/security"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

var guest = &auth.User{ID: uuid.MustParse("7d1c3f6e-0c1a-4a8e-9b55-2f4f0b8a9c11"), Username: "guest", Role: auth.RoleGuest}

func newRouter(fm *MockFileManager, user *auth.User, opts ...files.Option) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := handler.NewErrorHandler(log, account.MapErrors, files.MapErrors)
	router := files.New(fm, eh, opts...).Handle()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != nil {
			r = r.WithContext(auth.WithUser(r.Context(), user))
		}
		router.ServeHTTP(w, r)
	})
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

type envelope struct {
	Data  json.RawMessage      `json:"data"`
	Meta  map[string]any       `json:"meta"`
	Error *handler.ErrorDetail `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestRoutesRequireUser(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/files", "/folders", "/files/search"} {
		w := httptest.NewRecorder()
		newRouter(&MockFileManager{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestUploadURL(t *testing.T) {
	t.Parallel()

	t.Run("returns presigned target", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("RequestUploadURL", mock.Anything, filemanager.UploadRequest{
			FileName: "report.pdf", FileSize: 2048, ContentType: "application/pdf",
		}).Return(&filemanager.UploadTicket{
			UploadTarget: &objectstore.UploadTarget{
				UploadURL:  "https://bucket.s3.us-east-1.amazonaws.com/uploads/abc?X-Amz-Signature=1",
				Method:     http.MethodPut,
				Headers:    http.Header{"X-Amz-Server-Side-Encryption": {"AES256"}},
				Key:        "uploads/abc",
				ObjectPath: "/objects/uploads/abc",
				ExpiresAt:  time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC),
			},
			FileName: "1700000000000_deadbeef_report.pdf",
		}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files/upload-url",
			`{"fileName":"report.pdf","fileSize":2048,"contentType":"application/pdf"}`))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body struct {
			UploadURL  string            `json:"uploadURL"`
			Method     string            `json:"method"`
			Headers    map[string]string `json:"headers"`
			ObjectPath string            `json:"objectPath"`
			FileName   string            `json:"fileName"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
		assert.Contains(t, body.UploadURL, "X-Amz-Signature")
		assert.Equal(t, http.MethodPut, body.Method)
		assert.Equal(t, "AES256", body.Headers["X-Amz-Server-Side-Encryption"])
		assert.Equal(t, "/objects/uploads/abc", body.ObjectPath)
		assert.Equal(t, "1700000000000_deadbeef_report.pdf", body.FileName)
	})

	t.Run("validation errors are listed", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("RequestUploadURL", mock.Anything, mock.Anything).Return(nil, &security.ValidationError{
			Kind:     security.ErrValidationFailed,
			Messages: []string{"File type not allowed: .exe", "Filename contains executable file extensions"},
		})

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files/upload-url",
			`{"fileName":"setup.exe","fileSize":10,"contentType":"application/octet-stream"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, "File validation failed", env.Error.Message)
		assert.Len(t, env.Error.Details["errors"], 2)
	})
}

func TestUploadRateLimit(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
	require.NoError(t, err)

	fm := &MockFileManager{}
	fm.On("RequestUploadURL", mock.Anything, mock.Anything).Return(nil, filemanager.ErrInvalidInput).Once()
	rec := &MockRecorder{}
	rec.On("RecordUpload", metrics.UploadRateLimited, int64(0)).Once()

	router := newRouter(fm, guest, files.WithUploadLimiter(limiter), files.WithRecorder(rec))
	send := func() *httptest.ResponseRecorder {
		r := jsonRequest(http.MethodPost, "/files/upload-url", `{"fileName":"a.txt","fileSize":1,"contentType":"text/plain"}`)
		r.RemoteAddr = "203.0.113.7:5000"
		r.Header.Set("User-Agent", "test-agent")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, "0", first.Header().Get(ratelimit.HeaderRemaining))

	second := send()
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	env := decode(t, second)
	assert.Equal(t, "too_many_requests", env.Error.Code)
	assert.GreaterOrEqual(t, env.Meta["retryAfter"], float64(1))

	fm.AssertNumberOfCalls(t, "RequestUploadURL", 1)
	rec.AssertExpectations(t)

	// Listing is not throttled.
	fm.On("ListFiles", mock.Anything).Return([]db.File{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRateLimit_IncompleteRequestsAreNotCounted(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
	require.NoError(t, err)

	fm := &MockFileManager{}
	fm.On("RequestUploadURL", mock.Anything, filemanager.UploadRequest{FileName: "a.txt", ContentType: "text/plain"}).
		Return(nil, fmt.Errorf("%w: fileName, fileSize, and contentType are required", filemanager.ErrInvalidInput))
	fm.On("RequestUploadURL", mock.Anything, filemanager.UploadRequest{FileName: "a.txt", FileSize: 1, ContentType: "text/plain"}).
		Return(&filemanager.UploadTicket{UploadTarget: &objectstore.UploadTarget{ObjectPath: "/objects/uploads/a"}}, nil).Once()

	router := newRouter(fm, guest, files.WithUploadLimiter(limiter))
	send := func(body string) *httptest.ResponseRecorder {
		r := jsonRequest(http.MethodPost, "/files/upload-url", body)
		r.RemoteAddr = "203.0.113.9:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	for range 3 {
		w := send(`{"fileName":"a.txt","contentType":"text/plain"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, w.Header().Get(ratelimit.HeaderRemaining))
	}

	w := send(`{"fileName":"a.txt","fileSize":1,"contentType":"text/plain"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "0", w.Header().Get(ratelimit.HeaderRemaining))
}

func multipartUpload(t *testing.T, folderID, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if folderID != "" {
		require.NoError(t, mw.WriteField("folderId", folderID))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/files/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUpload(t *testing.T) {
	t.Parallel()

	t.Run("streams file to service", func(t *testing.T) {
		t.Parallel()

		folderID := uuid.New()
		content := []byte("hello, world")
		fm := &MockFileManager{}
		var got []byte
		fm.On("Upload", mock.Anything, mock.MatchedBy(func(in filemanager.DirectUpload) bool {
			return in.Filename == "notes.txt" &&
				in.Size == int64(len(content)) &&
				in.ContentType == "text/plain" &&
				in.FolderID != nil && *in.FolderID == folderID &&
				in.UserID != nil && *in.UserID == guest.ID
		})).Run(func(args mock.Arguments) {
			got, _ = io.ReadAll(args.Get(1).(filemanager.DirectUpload).Body)
		}).Return(&db.File{ID: uuid.New(), Name: "notes.txt", Status: db.FileStatusSynced}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, multipartUpload(t, folderID.String(), "notes.txt", "text/plain", content))

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, content, got)
		fm.AssertExpectations(t)
	})

	t.Run("root folder", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("Upload", mock.Anything, mock.MatchedBy(func(in filemanager.DirectUpload) bool {
			return in.FolderID == nil
		})).Return(&db.File{ID: uuid.New()}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, multipartUpload(t, "root", "a.txt", "text/plain", []byte("a")))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockFileManager{}, guest).ServeHTTP(w, multipartUpload(t, "", "", "", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file provided", decode(t, w).Error.Message)
	})

	t.Run("invalid folder id", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockFileManager{}, guest).ServeHTTP(w, multipartUpload(t, "not-a-uuid", "a.txt", "text/plain", []byte("a")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		router := newRouter(&MockFileManager{}, guest, files.WithMaxUploadBytes(512))
		router.ServeHTTP(w, multipartUpload(t, "", "big.txt", "text/plain", bytes.Repeat([]byte("x"), 4096)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestCreateFile(t *testing.T) {
	t.Parallel()

	t.Run("records uploader", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("CreateFile", mock.Anything, filemanager.NewFile{
			Name:       "photo.png",
			Size:       512,
			MimeType:   "image/png",
			ObjectPath: "https://bucket.s3.amazonaws.com/uploads/abc",
			UploadedBy: &guest.ID,
		}).Return(&db.File{ID: uuid.New(), ObjectPath: "/objects/uploads/abc"}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files",
			`{"name":"photo.png","size":512,"mimeType":"image/png","objectPath":"https://bucket.s3.amazonaws.com/uploads/abc"}`))

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"object_path":"/objects/uploads/abc"`)
	})

	t.Run("accepts the web client payload", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("CreateFile", mock.Anything, filemanager.NewFile{
			Name:         "a.pdf",
			OriginalName: "a.pdf",
			Size:         1024,
			MimeType:     "application/pdf",
			ObjectPath:   "https://bucket.s3.amazonaws.com/uploads/abc?X-Amz-Signature=1",
			UploadedBy:   &guest.ID,
			Metadata:     map[string]any{"source": "uppy"},
		}).Return(&db.File{ID: uuid.New(), OriginalName: "a.pdf"}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files",
			`{"name":"a.pdf","originalName":"a.pdf","size":1024,"mimeType":"application/pdf",`+
				`"objectPath":"https://bucket.s3.amazonaws.com/uploads/abc?X-Amz-Signature=1","status":"synced","metadata":{"source":"uppy"}}`))

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		fm.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files",
			`{"name":"a.pdf","size":1,"mimeType":"application/pdf","objectPath":"/objects/uploads/x","status":"deleted"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid file status", decode(t, w).Error.Message)
		fm.AssertNotCalled(t, "CreateFile", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing object", filemanager.ErrObjectMissing, http.StatusBadRequest},
		{"unknown folder", filemanager.ErrUnknownFolder, http.StatusBadRequest},
		{"foreign url", objectstore.ErrForeignURL, http.StatusBadRequest},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fm := &MockFileManager{}
			fm.On("CreateFile", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files",
				`{"name":"a.png","size":1,"mimeType":"image/png","objectPath":"/objects/uploads/x"}`))

			assert.Equal(t, tt.status, w.Code)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestSearchFiles(t *testing.T) {
	t.Parallel()

	fm := &MockFileManager{}
	fm.On("SearchFiles", mock.Anything, "report", "Documents").Return([]db.File{{Name: "report.pdf"}}, nil)

	w := httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/search?q=+report+&type=Documents", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "report.pdf")
	fm.AssertExpectations(t)
}

func TestBulkDelete(t *testing.T) {
	t.Parallel()

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	fm := &MockFileManager{}
	fm.On("BulkDelete", mock.Anything, ids).Return(2, nil)

	body, _ := json.Marshal(map[string]any{"fileIds": ids})
	w := httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files/bulk-delete", string(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"deletedCount":2}}`, w.Body.String())

	fm.On("BulkDelete", mock.Anything, []uuid.UUID{}).Return(0, filemanager.ErrEmptySelection)
	w = httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPost, "/files/bulk-delete", `{"fileIds":[]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSync(t *testing.T) {
	t.Parallel()

	fm := &MockFileManager{}
	fm.On("Sync", mock.Anything).Return(&filemanager.SyncReport{Total: 3, Synced: 2, Failed: 1}, nil)

	w := httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/files/sync", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"total":3,"synced":2,"failed":1}}`, w.Body.String())
}

func TestRenameFile(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	t.Run("renamed", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("RenameFile", mock.Anything, id, "new name.txt").Return(&db.File{ID: id, Name: "123_abcd_new_name.txt"}, nil)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPatch, "/files/"+id.String()+"/rename", `{"name":"new name.txt"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "123_abcd_new_name.txt")
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		fm := &MockFileManager{}
		fm.On("RenameFile", mock.Anything, id, "a.txt").Return(nil, filemanager.ErrFileNotFound)

		w := httptest.NewRecorder()
		newRouter(fm, guest).ServeHTTP(w, jsonRequest(http.MethodPatch, "/files/"+id.String()+"/rename", `{"name":"a.txt"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "File not found", decode(t, w).Error.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter(&MockFileManager{}, guest).ServeHTTP(w, jsonRequest(http.MethodPatch, "/files/42/rename", `{"name":"a.txt"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMoveFile(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	folderID := uuid.New()

	fm := &MockFileManager{}
	fm.On("MoveFile", mock.Anything, id, &folderID).Return(&db.File{ID: id, FolderID: &folderID}, nil)
	fm.On("MoveFile", mock.Anything, id, (*uuid.UUID)(nil)).Return(&db.File{ID: id}, nil)
	router := newRouter(fm, guest)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPatch, "/files/"+id.String()+"/move", `{"folderId":"`+folderID.String()+`"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPatch, "/files/"+id.String()+"/move", `{"folderId":null}`))
	assert.Equal(t, http.StatusOK, w.Code)

	fm.AssertExpectations(t)
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	fm := &MockFileManager{}
	fm.On("DownloadURL", mock.Anything, id).Return("https://signed.example/get", nil)

	w := httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/"+id.String()+"/download-url", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"downloadUrl":"https://signed.example/get"}}`, w.Body.String())
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	fm := &MockFileManager{}
	fm.On("DeleteFile", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	newRouter(fm, guest).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/files/"+id.String(), nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	fm.AssertExpectations(t)
}
