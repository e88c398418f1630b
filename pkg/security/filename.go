package security

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type namePattern struct {
	re   *regexp.Regexp
	name string
}

var (
	filenamePatterns = []namePattern{
		{regexp.MustCompile(`\.\.`), "directory traversal attempts"},
		{regexp.MustCompile(`[<>:"|?*]`), "invalid filename characters"},
		{regexp.MustCompile(`(?i)^(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`), "Windows reserved names"},
		{regexp.MustCompile(`(?i)\.(bat|cmd|exe|scr|pif|com|msi|dll|jar)$`), "executable file extensions"},
		{regexp.MustCompile(`(?i)\.(php|asp|aspx|jsp|py|rb|pl|sh|bash)$`), "script file extensions"},
		{regexp.MustCompile(`^\.`), "hidden files"},
	}

	folderPatterns = []namePattern{
		{regexp.MustCompile(`\.\.`), "directory traversal attempts"},
		{regexp.MustCompile(`[<>:"|?*/\\]`), "invalid folder characters"},
		{regexp.MustCompile(`(?i)^(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`), "Windows reserved names"},
		{regexp.MustCompile(`^\.`), "hidden folders"},
	}

	invalidFileChars   = regexp.MustCompile(`[<>:"|?*]`)
	invalidFolderChars = regexp.MustCompile(`[<>:"|?*/\\]`)
	leadingDots        = regexp.MustCompile(`^\.+`)
	whitespaceRun      = regexp.MustCompile(`\s+`)
	disallowedChars    = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
)

// FilenameResult is the outcome of ValidateFilename.
type FilenameResult struct {
	Valid     bool
	Errors    []string
	Sanitized string
}

// FolderResult is the outcome of ValidateFolderName.
type FolderResult struct {
	Valid     bool
	Errors    []string
	Sanitized string
}

// Err returns a *ValidationError for invalid folder names and nil otherwise.
func (r FolderResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Kind: ErrInvalidFolder, Messages: r.Errors}
}

// ValidateFilename checks name against the filename rules and returns a
// sanitized, collision-resistant variant prefixed with the current unix
// milliseconds and 8 random hex characters.
func (v *Validator) ValidateFilename(name string) FilenameResult {
	var errs []string
	if len([]rune(name)) > MaxFilenameLength {
		errs = append(errs, fmt.Sprintf("Filename is too long (max %d characters)", MaxFilenameLength))
	}
	if name == "" {
		errs = append(errs, "Filename cannot be empty")
	}
	for _, p := range filenamePatterns {
		if p.re.MatchString(name) {
			errs = append(errs, "Filename contains "+p.name)
		}
	}

	sanitized := SanitizeFilename(name)
	prefix := fmt.Sprintf("%d_%s_", v.now().UnixMilli(), v.randomHex(4))

	return FilenameResult{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Sanitized: prefix + sanitized,
	}
}

// SanitizeFilename NFC-normalizes name and strips every character outside
// [A-Za-z0-9_.-]. The original extension is restored if sanitization removed
// it. The result may be empty.
func SanitizeFilename(name string) string {
	s := norm.NFC.String(name)
	s = invalidFileChars.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "..", "_")
	s = leadingDots.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = disallowedChars.ReplaceAllString(s, "")

	if ext := filepath.Ext(name); ext != "" && filepath.Ext(s) == "" {
		s += disallowedChars.ReplaceAllString(ext, "")
	}
	return s
}

// ValidateFolderName checks a folder name and returns its sanitized form.
func (v *Validator) ValidateFolderName(name string) FolderResult {
	var errs []string
	if len([]rune(name)) > MaxFolderNameLength {
		errs = append(errs, fmt.Sprintf("Folder name is too long (max %d characters)", MaxFolderNameLength))
	}
	if strings.TrimSpace(name) == "" {
		errs = append(errs, "Folder name cannot be empty")
	}
	for _, p := range folderPatterns {
		if p.re.MatchString(name) {
			errs = append(errs, "Folder name contains "+p.name)
		}
	}

	return FolderResult{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Sanitized: SanitizeFolderName(name),
	}
}

// SanitizeFolderName applies the folder-name character rules without adding a prefix.
func SanitizeFolderName(name string) string {
	s := norm.NFC.String(strings.TrimSpace(name))
	s = invalidFolderChars.ReplaceAllString(s, "_")
	s = strings.ReplaceAll(s, "..", "_")
	s = leadingDots.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, "_")
	return disallowedChars.ReplaceAllString(s, "")
}

// GenerateSecureFilename returns "<unix-millis>_<32 hex chars><ext>" where ext
// is the lower-cased extension of name.
func (v *Validator) GenerateSecureFilename(name string) string {
	ext := strings.ToLower(disallowedChars.ReplaceAllString(filepath.Ext(name), ""))
	return fmt.Sprintf("%d_%s%s", v.now().UnixMilli(), v.randomHex(16), ext)
}

func (v *Validator) randomHex(n int) string {
	b := make([]byte, n)
	if _, err := io.ReadFull(v.random, b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Errorf("security: read random bytes: %w", err))
	}
	return hex.EncodeToString(b)
}
