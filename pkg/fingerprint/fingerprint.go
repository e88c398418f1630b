package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrymomot/filedeck/pkg/clientip"
)

// UploadClientID identifies an uploading client as the hex SHA-256 digest of
// its IP address concatenated with its User-Agent.
func UploadClientID(r *http.Request) string {
	sum := sha256.Sum256([]byte(clientip.FromRequest(r) + r.UserAgent()))
	return hex.EncodeToString(sum[:])
}

// Generate creates a device fingerprint bound to a session at login.
// Unlike UploadClientID it ignores the IP so that sessions survive network
// changes on mobile clients.
func Generate(r *http.Request) string {
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		headerSet(r),
	}

	filtered := components[:0]
	for _, c := range components {
		if c != "" {
			filtered = append(filtered, c)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(filtered, "|")))
	return hex.EncodeToString(sum[:16])
}

// Validate reports whether r produces the stored fingerprint.
func Validate(r *http.Request, stored string) bool {
	return stored == "" || Generate(r) == stored
}

// headerSet lists the stable browser headers present on the request.
func headerSet(r *http.Request) string {
	var names []string
	for name := range r.Header {
		switch strings.ToLower(name) {
		case "user-agent", "accept-language", "sec-ch-ua", "sec-ch-ua-platform":
			names = append(names, strings.ToLower(name))
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
