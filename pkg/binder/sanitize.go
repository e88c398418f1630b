package binder

import (
	"strings"
	"unicode"
)

// sanitizeStringValue drops NUL bytes and control characters other than
// tab, newline and carriage return.
func sanitizeStringValue(s string) string {
	if !strings.ContainsFunc(s, isStrippedRune) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isStrippedRune(r) {
			return -1
		}
		return r
	}, s)
}

func isStrippedRune(r rune) bool {
	return unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r'
}

// validateBoundary checks a multipart boundary against RFC 2046:
// 1 to 70 characters from a restricted set, not ending with a space.
func validateBoundary(b string) bool {
	if len(b) == 0 || len(b) > 70 || strings.HasSuffix(b, " ") {
		return false
	}
	for _, r := range b {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("'()+_,-./:=? ", r):
		default:
			return false
		}
	}
	return true
}
