package objectstore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultContentType = "application/octet-stream"

var ErrPresignUnavailable = errors.New("presigning is not configured")

// UploadTarget is a presigned PUT request for a new object.
type UploadTarget struct {
	UploadURL  string
	Method     string
	Headers    http.Header
	Key        string
	ObjectPath string
	ExpiresAt  time.Time
}

// PresignedPost is a browser form upload policy.
type PresignedPost struct {
	URL        string
	Fields     map[string]string
	Key        string
	ObjectPath string
	ExpiresAt  time.Time
}

// PresignUpload returns a signed PUT for key. Clients must send the returned
// headers with the upload.
func (s *Store) PresignUpload(ctx context.Context, key, contentType string) (*UploadTarget, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, ErrPresignUnavailable
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if s.cfg.ServerSideEncryption != "" {
		params.ServerSideEncryption = types.ServerSideEncryption(s.cfg.ServerSideEncryption)
	}

	req, err := s.presigner.PresignPutObject(ctx, params, s3.WithPresignExpires(s.cfg.UploadURLTTL))
	if err != nil {
		return nil, classifyS3Error(err, "presign upload")
	}

	headers := req.SignedHeader.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Del("Host")

	return &UploadTarget{
		UploadURL:  req.URL,
		Method:     req.Method,
		Headers:    headers,
		Key:        key,
		ObjectPath: ObjectPath(key),
		ExpiresAt:  s.now().Add(s.cfg.UploadURLTTL),
	}, nil
}

// NewUploadTarget presigns an upload to a fresh "<prefix><uuid>" key.
func (s *Store) NewUploadTarget(ctx context.Context, contentType string) (*UploadTarget, error) {
	return s.PresignUpload(ctx, s.NewUploadKey(), contentType)
}

// PresignDownload returns a signed GET URL for key.
func (s *Store) PresignDownload(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if s.presigner == nil {
		return "", ErrPresignUnavailable
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.cfg.DownloadURLTTL))
	if err != nil {
		return "", classifyS3Error(err, "presign download")
	}
	return req.URL, nil
}

// PresignPost returns form fields for a browser POST upload to key, limited
// to the configured maximum size.
func (s *Store) PresignPost(ctx context.Context, key, contentType string) (*PresignedPost, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, ErrPresignUnavailable
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	ttl := s.cfg.UploadURLTTL
	req, err := s.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = ttl
		o.Conditions = []interface{}{
			[]interface{}{"content-length-range", 0, s.cfg.PresignedPostMaxBytes},
			map[string]string{"Content-Type": contentType},
		}
	})
	if err != nil {
		return nil, classifyS3Error(err, "presign post")
	}

	fields := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		fields[k] = v
	}
	if _, ok := fields["Content-Type"]; !ok {
		fields["Content-Type"] = contentType
	}

	return &PresignedPost{
		URL:        req.URL,
		Fields:     fields,
		Key:        key,
		ObjectPath: ObjectPath(key),
		ExpiresAt:  s.now().Add(ttl),
	}, nil
}
