package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/filedeck/pkg/ratelimit"
)

func TestPrefixed(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	assert.Equal(t, "upload:10.0.0.1:5000", ratelimit.Prefixed("upload:", func(r *http.Request) string { return r.RemoteAddr })(req))
	assert.Equal(t, "", ratelimit.Prefixed("upload:", func(r *http.Request) string { return "" })(req))
}
