package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrRequestTimeout     = errors.New("request timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrInvalidObjectState = errors.New("invalid object state")
	ErrInvalidRange       = errors.New("requested range not satisfiable")

	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")

	ErrInvalidKey  = errors.New("invalid object key")
	ErrInvalidPath = errors.New("invalid object path")
	ErrForeignURL  = errors.New("url does not point to the configured bucket")

	ErrInvalidConfig      = errors.New("invalid object storage configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
)

// classifyS3Error converts S3 errors to package errors.
func classifyS3Error(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", ErrOperationCanceled, operation)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, operation)
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, operation)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, operation)
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", ErrAccessDenied, operation)
		case "RequestTimeout":
			return fmt.Errorf("%w: %s", ErrRequestTimeout, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s", ErrServiceUnavailable, operation)
		case "InvalidObjectState":
			return fmt.Errorf("%w: %s", ErrInvalidObjectState, operation)
		case "InvalidRange":
			return fmt.Errorf("%w: %s", ErrInvalidRange, operation)
		default:
			return fmt.Errorf("%s failed (code: %s): %w", operation, code, err)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
