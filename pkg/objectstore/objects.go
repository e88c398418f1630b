package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const listPageSize = 1000

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
}

// Object is an open object body. The caller must close Body.
type Object struct {
	ObjectInfo
	Body         io.ReadCloser
	ContentRange string
}

// PutInput describes an object to store.
type PutInput struct {
	Key                string
	Body               io.Reader
	Size               int64
	ContentType        string
	ContentDisposition string
	Metadata           map[string]string
}

// Put stores an object with server-side encryption.
func (s *Store) Put(ctx context.Context, in PutInput) error {
	if err := ValidateKey(in.Key); err != nil {
		return err
	}
	if s.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(in.Key),
		Body:        in.Body,
		ContentType: aws.String(contentType),
		Metadata:    in.Metadata,
	}
	if in.Size > 0 {
		params.ContentLength = aws.Int64(in.Size)
	}
	if in.ContentDisposition != "" {
		params.ContentDisposition = aws.String(in.ContentDisposition)
	}
	if s.cfg.ServerSideEncryption != "" {
		params.ServerSideEncryption = types.ServerSideEncryption(s.cfg.ServerSideEncryption)
	}

	if _, err := s.client.PutObject(ctx, params); err != nil {
		return classifyS3Error(err, "put object")
	}
	return nil
}

// Open returns the object body. rangeHeader is an optional HTTP Range value.
func (s *Store) Open(ctx context.Context, key, rangeHeader string) (*Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	params := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if rangeHeader != "" {
		params.Range = aws.String(rangeHeader)
	}

	out, err := s.client.GetObject(ctx, params)
	if err != nil {
		return nil, classifyS3Error(err, "get object")
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			ContentType:  aws.ToString(out.ContentType),
			ETag:         aws.ToString(out.ETag),
			LastModified: aws.ToTime(out.LastModified),
			Metadata:     out.Metadata,
		},
		Body:         out.Body,
		ContentRange: aws.ToString(out.ContentRange),
	}, nil
}

// ReadHead returns up to n leading bytes of an object.
func (s *Store) ReadHead(ctx context.Context, key string, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	obj, err := s.Open(ctx, key, fmt.Sprintf("bytes=0-%d", n-1))
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			return []byte{}, nil
		}
		return nil, err
	}
	defer func() { _ = obj.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(obj.Body, n))
	if err != nil {
		return nil, fmt.Errorf("read object head: %w", err)
	}
	return data, nil
}

// Head returns object metadata.
func (s *Store) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err, "head object")
	}

	return &ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		ETag:         aws.ToString(out.ETag),
		LastModified: aws.ToTime(out.LastModified),
		Metadata:     out.Metadata,
	}, nil
}

// Exists reports whether key exists. Errors other than "not found" are returned.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Head(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrObjectNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyS3Error(err, "delete object")
	}
	return nil
}

// DeleteMany removes objects in batches of 1000 and returns the keys S3
// reported as failed.
func (s *Store) DeleteMany(ctx context.Context, keys []string) ([]string, error) {
	var failed []string
	for i := 0; i < len(keys); i += listPageSize {
		end := min(i+listPageSize, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-i)
		for _, key := range keys[i:end] {
			if ValidateKey(key) != nil {
				failed = append(failed, key)
				continue
			}
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
		}
		if len(ids) == 0 {
			continue
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.cfg.Bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return failed, classifyS3Error(err, "delete objects")
		}
		for _, e := range out.Errors {
			failed = append(failed, aws.ToString(e.Key))
		}
	}
	return failed, nil
}

// Copy duplicates src to dst within the bucket.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	if err := ValidateKey(src); err != nil {
		return err
	}
	if err := ValidateKey(dst); err != nil {
		return err
	}

	params := &s3.CopyObjectInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(s.cfg.Bucket + "/" + escapeKey(src)),
	}
	if s.cfg.ServerSideEncryption != "" {
		params.ServerSideEncryption = types.ServerSideEncryption(s.cfg.ServerSideEncryption)
	}

	if _, err := s.client.CopyObject(ctx, params); err != nil {
		return classifyS3Error(err, "copy object")
	}
	return nil
}

// Move copies src to dst and deletes src.
func (s *Store) Move(ctx context.Context, src, dst string) error {
	if src == dst {
		return fmt.Errorf("%w: source and destination are equal", ErrInvalidKey)
	}
	if err := s.Copy(ctx, src, dst); err != nil {
		return err
	}
	if err := s.Delete(ctx, src); err != nil {
		return fmt.Errorf("object copied to %s but source not removed: %w", dst, err)
	}
	return nil
}

// List returns every object whose key starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(listPageSize),
	})

	var objects []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error(err, "list objects")
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}
