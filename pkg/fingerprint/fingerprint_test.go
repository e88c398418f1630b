package fingerprint_test

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/filedeck/pkg/fingerprint"
)

func TestUploadClientID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload-url", nil)
	req.RemoteAddr = "203.0.113.5:1000"
	req.Header.Set("User-Agent", "Mozilla/5.0")

	sum := sha256.Sum256([]byte("203.0.113.5Mozilla/5.0"))
	assert.Equal(t, hex.EncodeToString(sum[:]), fingerprint.UploadClientID(req))

	other := httptest.NewRequest(http.MethodPost, "/api/files/upload-url", nil)
	other.RemoteAddr = "203.0.113.5:1000"
	other.Header.Set("User-Agent", "curl/8.0")
	assert.NotEqual(t, fingerprint.UploadClientID(req), fingerprint.UploadClientID(other))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	newReq := func(ip, ua string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip
		req.Header.Set("User-Agent", ua)
		req.Header.Set("Accept-Language", "en-US")
		return req
	}

	a := fingerprint.Generate(newReq("10.0.0.1:1", "Firefox"))
	b := fingerprint.Generate(newReq("10.0.0.2:1", "Firefox"))
	c := fingerprint.Generate(newReq("10.0.0.1:1", "Chrome"))

	assert.Len(t, a, 32)
	assert.Equal(t, a, b, "ip must not affect the device fingerprint")
	assert.NotEqual(t, a, c)

	assert.True(t, fingerprint.Validate(newReq("10.0.0.3:1", "Firefox"), a))
	assert.False(t, fingerprint.Validate(newReq("10.0.0.3:1", "Chrome"), a))
	assert.True(t, fingerprint.Validate(newReq("10.0.0.3:1", "Chrome"), ""))
}
