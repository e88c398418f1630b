package binder

import "errors"

// Common binding errors
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrInvalidForm          = errors.New("failed to parse form data")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrMissingContentType   = errors.New("missing content type")

	// ErrBinderNotApplicable is returned by binders that do not handle the
	// request, e.g. a body binder on a GET request. Wrap skips such binders.
	ErrBinderNotApplicable = errors.New("binder not applicable to request")
)
