// Package binder binds HTTP request data to Go structs.
//
// Each binder reads one source and fills the fields carrying its struct tag:
//
//   - JSON(): request body, `json` tags; string fields are stripped of control characters
//   - Form(): urlencoded or multipart bodies, `form` and `file` tags
//   - Query(): URL query parameters, `query` tags
//   - Path(extractor): router path parameters, `path` tags
//
// Fields may be basic types, slices of them, pointers for optional values,
// or any type implementing encoding.TextUnmarshaler such as uuid.UUID.
// Uploaded file names are reduced to their base name.
//
// Binders are combined with handler.WithBinders and applied in order:
//
//	type MoveRequest struct {
//		ID       uuid.UUID  `path:"id"`
//		FolderID *uuid.UUID `json:"folderId"`
//	}
//
//	r.Patch("/{id}/move", handler.Wrap(move,
//		handler.WithBinders[handler.Context, MoveRequest](
//			binder.Path(chi.URLParam),
//			binder.JSON(),
//		),
//	))
//
// A binder that does not apply to a request returns ErrBinderNotApplicable
// and is skipped. All other failures wrap one of the package errors.
package binder
