package security

import "strings"

var suspiciousAccessExtensions = []string{".exe", ".bat", ".cmd", ".scr", ".php", ".asp", ".jsp"}

// ValidateAccessPath checks a requested object path before it is resolved
// against storage. The path is the part of the URL after the /objects/ prefix.
func ValidateAccessPath(p string) error {
	if p == "" {
		return ErrPathRequired
	}
	if strings.Contains(p, "..") || strings.Contains(p, "~") || strings.HasPrefix(p, "/") {
		return ErrForbiddenPath
	}
	lower := strings.ToLower(p)
	for _, ext := range suspiciousAccessExtensions {
		if strings.Contains(lower, ext) {
			return ErrForbiddenType
		}
	}
	return nil
}
