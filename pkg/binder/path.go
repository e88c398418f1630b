package binder

import (
	"fmt"
	"net/http"
)

// PathExtractor returns the value of a named path parameter.
// chi.URLParam satisfies it.
type PathExtractor func(r *http.Request, name string) string

// Path creates a binder for path parameters using the `path` struct tag.
// The tag "*" reads the wildcard segment of routes such as "/objects/*".
//
//	type FileRequest struct {
//		ID uuid.UUID `path:"id"`
//	}
func Path(extract PathExtractor) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extract == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrFailedToParsePath)
		}
		fields, err := taggedFields(v, "path")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParsePath, err)
		}

		values := make(map[string][]string, len(fields))
		for _, f := range fields {
			if val := extract(r, f.key); val != "" {
				values[f.key] = []string{val}
			}
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
