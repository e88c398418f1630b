package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
)

// DefaultMaxJSONSize is the default maximum size for JSON request bodies (1MB).
const DefaultMaxJSONSize = 1 << 20 // 1 MB

// JSON creates a JSON body binder. Unknown fields and trailing data are
// rejected and string fields are stripped of control characters.
// Requests without a body (GET, HEAD, DELETE) are not applicable.
//
// Example:
//
//	type RenameRequest struct {
//		ID   uuid.UUID `path:"id"`
//		Name string    `json:"name"`
//	}
//
//	r.Patch("/{id}/rename", handler.Wrap(rename,
//		handler.WithBinders[handler.Context, RenameRequest](
//			binder.Path(chi.URLParam),
//			binder.JSON(),
//		),
//	))
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete:
			return ErrBinderNotApplicable
		}
		if err := r.Context().Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: missing content-type header, expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err != nil {
			return fmt.Errorf("%w: failed to read request body: %w", ErrFailedToParseJSON, err)
		}
		if len(body) > DefaultMaxJSONSize {
			return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseJSON, DefaultMaxJSONSize)
		}
		if len(body) == 0 {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(v); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}
		if err := decoder.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
		}

		sanitizeJSONStruct(v)
		return nil
	}
}

// sanitizeJSONStruct strips control characters from every settable string
// reachable from v.
func sanitizeJSONStruct(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return
	}
	sanitizeReflectValue(rv.Elem())
}

func sanitizeReflectValue(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(sanitizeStringValue(rv.String()))
		}
	case reflect.Struct:
		for i := range rv.NumField() {
			if f := rv.Field(i); f.CanSet() {
				sanitizeReflectValue(f)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			sanitizeReflectValue(rv.Index(i))
		}
	case reflect.Ptr, reflect.Interface:
		if !rv.IsNil() {
			sanitizeReflectValue(rv.Elem())
		}
	}
}
