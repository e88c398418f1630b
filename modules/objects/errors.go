package objects

import (
	"errors"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
)

// MapErrors translates storage and access errors for handler.NewErrorHandler.
func MapErrors(err error) error {
	switch {
	case errors.Is(err, security.ErrPathRequired):
		return handler.Detailed(handler.ErrBadRequest, "File path is required", nil)
	case errors.Is(err, security.ErrForbiddenPath), errors.Is(err, security.ErrForbiddenType):
		return handler.Detailed(handler.ErrForbidden, "Access denied", nil)
	case errors.Is(err, objectstore.ErrInvalidKey),
		errors.Is(err, objectstore.ErrInvalidPath),
		errors.Is(err, objectstore.ErrForeignURL):
		return handler.Detailed(handler.ErrBadRequest, "Invalid object path", nil)
	case errors.Is(err, objectstore.ErrObjectNotFound):
		return handler.Detailed(handler.ErrNotFound, "File not found", nil)
	case errors.Is(err, objectstore.ErrInvalidRange):
		return handler.ErrRangeNotSatisfiable
	case errors.Is(err, objectstore.ErrAccessDenied), errors.Is(err, objectstore.ErrBucketNotFound):
		return handler.ErrBadGateway
	case errors.Is(err, objectstore.ErrRequestTimeout),
		errors.Is(err, objectstore.ErrOperationTimeout),
		errors.Is(err, objectstore.ErrServiceUnavailable),
		errors.Is(err, objectstore.ErrPresignUnavailable):
		return handler.ErrServiceUnavailable
	}
	return nil
}
