package objects

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/logger"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

// CacheControl is sent with every streamed object.
const CacheControl = "public, max-age=3600"

// ObjectRequest addresses an object by the wildcard part of the route.
type ObjectRequest struct {
	Key string `path:"*"`
}

type NewUploadRequest struct {
	ContentType string `json:"contentType"`
}

type PresignedPostRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type ListRequest struct {
	Prefix string `query:"prefix"`
}

// TransferRequest names a source and a destination by key, object path or
// bucket URL.
type TransferRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type objectInfo struct {
	Key          string            `json:"key"`
	ObjectPath   string            `json:"objectPath"`
	PublicURL    string            `json:"publicUrl"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"contentType,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	LastModified time.Time         `json:"lastModified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (s *Service) newObjectInfo(info objectstore.ObjectInfo) objectInfo {
	return objectInfo{
		Key:          info.Key,
		ObjectPath:   objectstore.ObjectPath(info.Key),
		PublicURL:    s.store.PublicURL(info.Key),
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     info.Metadata,
	}
}

func (s *Service) serveObject(ctx handler.Context, req ObjectRequest) handler.Response {
	key, err := accessKey(req.Key)
	if err != nil {
		return handler.Fail(err)
	}

	obj, err := s.store.Open(ctx, key, ctx.Request().Header.Get("Range"))
	if err != nil {
		return handler.Fail(err)
	}
	return objectResponse{obj: obj, logger: s.logger}
}

func (s *Service) newUpload(ctx handler.Context, req NewUploadRequest) handler.Response {
	target, err := s.store.NewUploadTarget(ctx, req.ContentType)
	if err != nil {
		return handler.Fail(err)
	}

	headers := make(map[string]string, len(target.Headers))
	for k := range target.Headers {
		headers[k] = target.Headers.Get(k)
	}
	return handler.JSON(map[string]any{
		"uploadURL":  target.UploadURL,
		"method":     target.Method,
		"headers":    headers,
		"key":        target.Key,
		"objectPath": target.ObjectPath,
		"expiresAt":  target.ExpiresAt,
	})
}

func (s *Service) presignedPost(ctx handler.Context, req PresignedPostRequest) handler.Response {
	res := s.validator.ValidateFilename(req.FileName)
	errs := res.Errors
	if req.ContentType != "" && !s.validator.IsAllowedMIMEType(req.ContentType) {
		errs = append(errs, "File type not allowed: "+req.ContentType)
	}
	if len(errs) > 0 {
		return handler.Fail(&security.ValidationError{Kind: security.ErrValidationFailed, Messages: errs})
	}

	key := s.store.NewUploadKey() + "-" + s.validator.GenerateSecureFilename(req.FileName)
	post, err := s.store.PresignPost(ctx, key, req.ContentType)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(map[string]any{
		"url":        post.URL,
		"fields":     post.Fields,
		"key":        post.Key,
		"objectPath": post.ObjectPath,
		"expiresAt":  post.ExpiresAt,
	})
}

func (s *Service) list(ctx handler.Context, req ListRequest) handler.Response {
	objects, err := s.store.List(ctx, req.Prefix)
	if err != nil {
		return handler.Fail(err)
	}

	out := make([]objectInfo, 0, len(objects))
	for _, o := range objects {
		out = append(out, s.newObjectInfo(o))
	}
	return handler.JSON(out, handler.WithJSONMeta(map[string]any{"count": len(out)}))
}

func (s *Service) metadata(ctx handler.Context, req ObjectRequest) handler.Response {
	key, err := accessKey(req.Key)
	if err != nil {
		return handler.Fail(err)
	}
	info, err := s.store.Head(ctx, key)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(s.newObjectInfo(*info))
}

// complete confirms that a presigned upload reached the bucket.
func (s *Service) complete(ctx handler.Context, req ObjectRequest) handler.Response {
	key, err := accessKey(req.Key)
	if err != nil {
		return handler.Fail(err)
	}
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return handler.Fail(err)
	}
	if !ok {
		return handler.Fail(objectstore.ErrObjectNotFound)
	}
	return handler.JSON(map[string]string{"objectPath": objectstore.ObjectPath(key)})
}

func (s *Service) move(ctx handler.Context, req TransferRequest) handler.Response {
	return s.transfer(ctx, req, "moved", s.store.Move)
}

func (s *Service) copy(ctx handler.Context, req TransferRequest) handler.Response {
	return s.transfer(ctx, req, "copied", s.store.Copy)
}

func (s *Service) transfer(ctx handler.Context, req TransferRequest, event string, op func(ctx context.Context, src, dst string) error) handler.Response {
	src, err := s.resolveKey(req.Source)
	if err != nil {
		return handler.Fail(err)
	}
	dst, err := s.resolveKey(req.Destination)
	if err != nil {
		return handler.Fail(err)
	}
	if err := op(ctx, src, dst); err != nil {
		return handler.Fail(err)
	}

	s.logger.InfoContext(ctx, "object "+event,
		logger.ObjectKey(src),
		slog.String("destination", dst),
		logger.Component("objects"),
	)
	return handler.JSON(map[string]string{"objectPath": objectstore.ObjectPath(dst)})
}

func (s *Service) delete(ctx handler.Context, req ObjectRequest) handler.Response {
	key, err := accessKey(req.Key)
	if err != nil {
		return handler.Fail(err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return handler.Fail(err)
	}
	s.logger.InfoContext(ctx, "object deleted", logger.ObjectKey(key), logger.Component("objects"))
	return handler.Empty()
}

func (s *Service) resolveKey(ref string) (string, error) {
	p, err := s.store.NormalizeObjectPath(ref)
	if err != nil {
		return "", err
	}
	return objectstore.KeyFromObjectPath(p)
}

// accessKey decodes a key taken from the URL and checks it against the
// access rules and the key syntax.
func accessKey(raw string) (string, error) {
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", objectstore.ErrInvalidKey, err)
	}
	if err := security.ValidateAccessPath(key); err != nil {
		return "", err
	}
	if err := objectstore.ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

type objectResponse struct {
	obj    *objectstore.Object
	logger *slog.Logger
}

func (o objectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	defer func() { _ = o.obj.Body.Close() }()

	h := w.Header()
	contentType := o.obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", CacheControl)
	h.Set("Accept-Ranges", "bytes")
	if o.obj.ETag != "" {
		h.Set("ETag", o.obj.ETag)
	}
	if !o.obj.LastModified.IsZero() {
		h.Set("Last-Modified", o.obj.LastModified.UTC().Format(http.TimeFormat))
	}

	status := http.StatusOK
	if o.obj.ContentRange != "" {
		h.Set("Content-Range", o.obj.ContentRange)
		status = http.StatusPartialContent
	} else if o.obj.ETag != "" && r.Header.Get("If-None-Match") == o.obj.ETag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	if o.obj.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(o.obj.Size, 10))
	}

	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := io.Copy(w, o.obj.Body); err != nil {
		o.logger.WarnContext(r.Context(), "object stream interrupted",
			logger.ObjectKey(o.obj.Key),
			logger.Error(err),
			logger.Component("objects"),
		)
	}
	return nil
}
