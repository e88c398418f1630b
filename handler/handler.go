package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/filedeck/pkg/binder"
)

// HandlerFunc handles a request already decoded into R.
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response writes itself to the client. An error returned by Render goes to
// the route's ErrorHandler, so a Response must not write anything before it
// knows it will succeed.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind fills v from one part of the request. See package binder.
type Bind func(r *http.Request, v any) error

// ErrorHandler writes the response for a failed request.
type ErrorHandler[C Context] func(ctx C, err error)

// WrapOption configures Wrap.
type WrapOption[C Context, R any] func(*route[C, R])

type route[C Context, R any] struct {
	binders []Bind
	onError ErrorHandler[C]
}

// WithBinders appends request binders. They run in order and each one only
// touches the fields carrying its own tag, so later binders never clear what
// earlier ones filled.
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(rt *route[C, R]) {
		rt.binders = append(rt.binders, binders...)
	}
}

// WithErrorHandler replaces the default error handler, which renders the
// error as JSON without logging it.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(rt *route[C, R]) {
		if h != nil {
			rt.onError = h
		}
	}
}

func renderError[C Context](ctx C, err error) {
	if mapped := BindingErrors(err); mapped != nil {
		err = mapped
	}
	_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
}

// Wrap adapts h to http.HandlerFunc: it binds the request, calls h and
// renders the returned Response. Binding failures, a nil Response and render
// errors all go to the error handler.
//
//	r.Post("/folders", handler.Wrap(createFolder,
//		handler.WithBinders[handler.Context, CreateFolderRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, CreateFolderRequest](errorHandler),
//	))
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	rt := &route[C, R]{onError: renderError[C]}
	for _, opt := range opts {
		opt(rt)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := NewContext(w, r).(C)
		if !ok {
			panic("handler: Wrap supports handler.Context only")
		}

		var req R
		for _, bind := range rt.binders {
			err := bind(r, &req)
			if errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			if err != nil {
				rt.onError(ctx, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			rt.onError(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			rt.onError(ctx, err)
		}
	}
}
