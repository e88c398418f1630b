package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope of every JSON body: "data" on success,
// "error" on failure and optional "meta" on both.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the "error" member of a failed response.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the status code.
func WithJSONStatus(status int) JSONOption {
	return func(j *jsonResponse) { j.status = status }
}

// WithJSONMeta merges meta into the "meta" member.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(j *jsonResponse) {
		if j.body.Meta == nil {
			j.body.Meta = make(map[string]any, len(meta))
		}
		maps.Copy(j.body.Meta, meta)
	}
}

// JSON returns a 200 response with v as "data".
func JSON(v any, opts ...JSONOption) Response {
	j := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// JSONError returns an error response for err. HTTPError, DetailedError and
// ValidationError set the status and code; any other error becomes a 500
// whose text is not sent to the client.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := describe(err)
	j := &jsonResponse{status: status, body: JSONResponse{Error: detail}}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func describe(err error) (int, *ErrorDetail) {
	var detailed *DetailedError
	if errors.As(err, &detailed) {
		return detailed.Code, &ErrorDetail{Code: detailed.Key, Message: detailed.Message, Details: detailed.Details}
	}

	var fields ValidationError
	if errors.As(err, &fields) {
		detail := &ErrorDetail{Code: "validation_error", Message: "Validation failed"}
		if len(fields) > 0 {
			detail.Details = maps.Clone(map[string][]string(fields))
		}
		return http.StatusBadRequest, detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternal.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}
