package objectstore

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ObjectPathPrefix is the application route under which objects are served.
const ObjectPathPrefix = "/objects/"

const maxKeyLength = 1024

// ValidateKey checks that key is a safe, canonical S3 key: non-empty, relative,
// without empty, "." or ".." segments, "~" or control characters.
func ValidateKey(key string) error {
	if key == "" || len(key) > maxKeyLength {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "~") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in key", ErrInvalidKey)
		}
	}
	for seg := range strings.SplitSeq(strings.TrimSuffix(key, "/"), "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// ObjectPath maps an object key to its application route.
func ObjectPath(key string) string {
	return ObjectPathPrefix + key
}

// KeyFromObjectPath maps an application route back to the object key.
func KeyFromObjectPath(p string) (string, error) {
	key, ok := strings.CutPrefix(p, ObjectPathPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q must start with %s", ErrInvalidPath, p, ObjectPathPrefix)
	}
	if err := ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return key, nil
}

// NormalizeObjectPath converts any reference a client may hold for an
// uploaded object into the canonical "/objects/<key>" form. Accepted inputs:
//
//   - a URL of the configured bucket, virtual-hosted or path-style, signed
//     or not (the query string is dropped)
//   - a URL under the public base URL
//   - an "/objects/<key>" path
//   - a bare object key
func (s *Store) NormalizeObjectPath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	var key string
	switch {
	case strings.HasPrefix(raw, "https://"), strings.HasPrefix(raw, "http://"):
		k, err := s.keyFromURL(raw)
		if err != nil {
			return "", err
		}
		key = k
	case strings.HasPrefix(raw, ObjectPathPrefix):
		key = strings.TrimPrefix(raw, ObjectPathPrefix)
	case strings.HasPrefix(raw, "/"):
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	default:
		key = raw
	}

	if err := ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return ObjectPath(key), nil
}

func (s *Store) keyFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	host := strings.ToLower(u.Hostname())
	p := strings.TrimPrefix(u.Path, "/")
	bucket := strings.ToLower(s.cfg.Bucket)

	if base, err := url.Parse(s.baseURL); err == nil && strings.EqualFold(base.Host, u.Host) {
		if key, ok := strings.CutPrefix("/"+p, base.Path); ok {
			return key, nil
		}
	}

	switch {
	case strings.HasPrefix(host, bucket+".s3") && strings.HasSuffix(host, ".amazonaws.com"):
		return p, nil
	case isS3Host(host) || s.isEndpointHost(u.Host):
		if key, ok := strings.CutPrefix(p, s.cfg.Bucket+"/"); ok {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrForeignURL, u.Host)
}

func isS3Host(host string) bool {
	return (host == "s3.amazonaws.com" || strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-")) &&
		strings.HasSuffix(host, ".amazonaws.com")
}

func (s *Store) isEndpointHost(host string) bool {
	if s.cfg.Endpoint == "" {
		return false
	}
	e, err := url.Parse(s.cfg.Endpoint)
	return err == nil && strings.EqualFold(e.Host, host)
}

// PublicURL returns the unsigned URL of key under the public base URL.
func (s *Store) PublicURL(key string) string {
	return s.baseURL + escapeKey(key)
}

// escapeKey percent-encodes every segment of key, keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
