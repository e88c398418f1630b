package binder

import "net/http"

// Query creates a binder for URL query parameters using the `query` struct tag.
//
// Example:
//
//	type SearchRequest struct {
//		Query string `query:"q"`
//		Type  string `query:"type"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
