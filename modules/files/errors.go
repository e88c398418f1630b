package files

import (
	"errors"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/pkg/objectstore"
	"github.com/dmitrymomot/filedeck/pkg/security"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

// MapErrors translates file manager errors for handler.NewErrorHandler.
func MapErrors(err error) error {
	if msgs := security.Messages(err); msgs != nil {
		msg := "File validation failed"
		if errors.Is(err, security.ErrInvalidFolder) {
			msg = "Invalid folder name"
		}
		return handler.Detailed(handler.ErrBadRequest, msg, map[string][]string{"errors": msgs})
	}

	switch {
	case errors.Is(err, filemanager.ErrFileNotFound):
		return handler.Detailed(handler.ErrNotFound, "File not found", nil)
	case errors.Is(err, filemanager.ErrFolderNotFound):
		return handler.Detailed(handler.ErrNotFound, "Folder not found", nil)
	case errors.Is(err, filemanager.ErrObjectMissing):
		return handler.Detailed(handler.ErrBadRequest, "Uploaded object not found in storage", nil)
	case errors.Is(err, filemanager.ErrUnknownFolder):
		return handler.Detailed(handler.ErrBadRequest, "Folder does not exist", nil)
	case errors.Is(err, filemanager.ErrFolderCycle):
		return handler.Detailed(handler.ErrBadRequest, "Cannot move a folder into itself or its subfolders", nil)
	case errors.Is(err, filemanager.ErrInvalidColor):
		return handler.Detailed(handler.ErrBadRequest, "Color must be a hex value like #3B82F6", nil)
	case errors.Is(err, filemanager.ErrEmptySelection):
		return handler.Detailed(handler.ErrBadRequest, "No files selected", nil)
	case errors.Is(err, filemanager.ErrInvalidInput):
		return handler.Detailed(handler.ErrBadRequest, err.Error(), nil)
	case errors.Is(err, objectstore.ErrInvalidPath), errors.Is(err, objectstore.ErrForeignURL):
		return handler.Detailed(handler.ErrBadRequest, "Invalid object path", nil)
	case errors.Is(err, objectstore.ErrPresignUnavailable):
		return handler.ErrServiceUnavailable
	}
	return nil
}
