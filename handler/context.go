package handler

import (
	"context"
	"net/http"
)

// Context is the request context handed to handlers. It is a context.Context
// carrying the request values (session, user, request ID) and gives access
// to the underlying request and response writer.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
}

// NewContext returns the Context of r.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return requestContext{Context: r.Context(), w: w, r: r}
}

type requestContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func (c requestContext) Request() *http.Request              { return c.r }
func (c requestContext) ResponseWriter() http.ResponseWriter { return c.w }
