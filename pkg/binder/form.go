package binder

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"reflect"
	"strings"
)

// DefaultMaxMemory is the part of a multipart body kept in memory; the rest
// of each file spills to temporary files.
const DefaultMaxMemory = 10 << 20

var (
	fileHeaderType  = reflect.TypeFor[*multipart.FileHeader]()
	fileHeadersType = reflect.TypeFor[[]*multipart.FileHeader]()
)

// Form creates a binder for application/x-www-form-urlencoded and
// multipart/form-data bodies. Values use the `form` tag, uploaded files the
// `file` tag on a *multipart.FileHeader or []*multipart.FileHeader field.
//
//	type UploadRequest struct {
//		FolderID string                `form:"folderId"`
//		File     *multipart.FileHeader `file:"file"`
//	}
//
// The body size is not limited here. Wrap the route with a size limit such as
// chi's middleware.RequestSize; an oversized body surfaces as an error that
// wraps *http.MaxBytesError.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/x-www-form-urlencoded or multipart/form-data", ErrMissingContentType)
		}
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			return fmt.Errorf("%w: malformed content type", ErrInvalidForm)
		}

		switch mediaType {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidForm, err)
			}
			return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)

		case "multipart/form-data":
			if !validateBoundary(params["boundary"]) {
				return fmt.Errorf("%w: invalid boundary parameter", ErrInvalidForm)
			}
			if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidForm, err)
			}
			if err := bindToStruct(v, "form", r.MultipartForm.Value, ErrInvalidForm); err != nil {
				return err
			}
			return bindFiles(v, r.MultipartForm.File)
		}
		return fmt.Errorf("%w: got %s, expected application/x-www-form-urlencoded or multipart/form-data", ErrUnsupportedMediaType, mediaType)
	}
}

func bindFiles(v any, files map[string][]*multipart.FileHeader) error {
	fields, err := taggedFields(v, "file")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	for _, f := range fields {
		headers := files[f.key]
		if len(headers) == 0 {
			continue
		}
		for _, fh := range headers {
			fh.Filename = baseFilename(fh.Filename)
		}

		switch f.typ {
		case fileHeaderType:
			f.value.Set(reflect.ValueOf(headers[0]))
		case fileHeadersType:
			f.value.Set(reflect.ValueOf(headers))
		default:
			return fmt.Errorf("%w: field %s: file fields must be *multipart.FileHeader or []*multipart.FileHeader", ErrInvalidForm, f.name)
		}
	}
	return nil
}

// baseFilename strips directory components, including Windows-style ones, and
// NUL bytes from a client supplied file name.
func baseFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.ReplaceAll(name, "\x00", ""), "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "unnamed"
	}
	return name
}
