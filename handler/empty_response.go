package handler

import "net/http"

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty creates an empty response with status 204 (No Content), e.g. for
// successful deletes.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

type failResponse struct {
	err error
}

func (f failResponse) Render(http.ResponseWriter, *http.Request) error {
	return f.err
}

// Fail returns a response that hands err to the error handler configured
// for the route instead of writing anything itself.
//
// Example:
//
//	file, err := files.GetFile(ctx, req.ID)
//	if err != nil {
//		return handler.Fail(err)
//	}
func Fail(err error) Response {
	if err == nil {
		err = ErrInternal
	}
	return failResponse{err: err}
}
