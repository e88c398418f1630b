// Package handler provides type-safe JSON HTTP handlers.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// and returns a Response:
//
//	type RenameRequest struct {
//		ID   uuid.UUID `path:"id"`
//		Name string    `json:"name"`
//	}
//
//	func rename(ctx handler.Context, req RenameRequest) handler.Response {
//		file, err := files.RenameFile(ctx, req.ID, req.Name)
//		if err != nil {
//			return handler.Fail(err)
//		}
//		return handler.JSON(file)
//	}
//
//	r.Patch("/{id}/rename", handler.Wrap(rename,
//		handler.WithBinders[handler.Context, RenameRequest](binder.Path(chi.URLParam), binder.JSON()),
//		handler.WithErrorHandler[handler.Context, RenameRequest](errorHandler),
//	))
//
// # Responses
//
//	handler.JSON(data)                          // 200 {"data": ...}
//	handler.JSON(data, handler.WithJSONStatus(201))
//	handler.JSONError(err)                      // {"error": {"code", "message", "details"}}
//	handler.Empty()                             // 204
//	handler.Fail(err)                           // delegate to the error handler
//
// # Errors
//
// HTTPError carries a status and a machine readable code. DetailedError adds
// a client message and per-field details. ValidationError collects field
// messages and renders as 400. Any other error renders as 500 without
// exposing its text.
//
// NewErrorHandler builds an ErrorHandler that logs every failure and maps
// domain errors through ErrorMapper functions before rendering them.
package handler
