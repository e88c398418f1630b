package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"
)

const (
	MaxFilenameLength   = 255
	MaxFolderNameLength = 100

	// DefaultInspectBytes is the amount of content inspected for non-image files.
	DefaultInspectBytes = 4096

	mib = 1024 * 1024
)

// DefaultAllowedMIMETypes lists the declared content types accepted for upload.
var DefaultAllowedMIMETypes = []string{
	// images
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp",
	"image/svg+xml", "image/bmp", "image/tiff",
	// documents
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain", "text/csv", "application/rtf",
	// archives
	"application/zip", "application/x-rar-compressed", "application/x-7z-compressed",
	"application/gzip", "application/x-tar",
	// audio
	"audio/mpeg", "audio/wav", "audio/mp4", "audio/aac", "audio/ogg", "audio/flac",
	// video
	"video/mp4", "video/mpeg", "video/quicktime", "video/x-msvideo", "video/webm", "video/ogg",
	// code and markup
	"application/json", "application/xml", "text/html", "text/css",
	"text/javascript", "application/javascript", "text/markdown",
	// 3D models
	"application/octet-stream", "model/gltf+json", "model/gltf-binary", "application/x-blender",
}

// DefaultAllowedExtensions lists the accepted file extensions (lower case, with dot).
var DefaultAllowedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".tiff",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".csv", ".rtf",
	".zip", ".rar", ".7z", ".gz", ".tar",
	".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac",
	".mp4", ".mpeg", ".mov", ".avi", ".webm", ".ogv",
	".json", ".xml", ".html", ".css", ".js", ".md",
	".fbx", ".obj", ".dae", ".3ds", ".ply", ".stl", ".x3d", ".gltf", ".glb", ".blend",
}

// SizeLimit caps the size of files whose MIME type matches Pattern.
// Pattern is either an exact type or a "type/*" wildcard.
type SizeLimit struct {
	Pattern  string `yaml:"pattern"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// Matches reports whether mimeType falls under the limit pattern.
func (l SizeLimit) Matches(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	pattern := strings.ToLower(l.Pattern)
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(mimeType, prefix)
	}
	return mimeType == pattern
}

// DefaultSizeLimits are evaluated in order, the first match wins.
var DefaultSizeLimits = []SizeLimit{
	{Pattern: "image/*", MaxBytes: 10 * mib},
	{Pattern: "video/*", MaxBytes: 100 * mib},
	{Pattern: "audio/*", MaxBytes: 50 * mib},
	{Pattern: "application/pdf", MaxBytes: 20 * mib},
	{Pattern: "application/octet-stream", MaxBytes: 200 * mib},
	{Pattern: "model/*", MaxBytes: 200 * mib},
}

// DefaultMaxBytes applies to types without a dedicated limit.
const DefaultMaxBytes int64 = 25 * mib

// Result is the outcome of ValidateFile.
type Result struct {
	Valid             bool
	Errors            []string
	SanitizedFilename string
	DetectedMIMEType  string
}

// Err returns a *ValidationError for invalid results and nil otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Kind: ErrValidationFailed, Messages: r.Errors}
}

// Validator checks uploads against allow-lists, size limits and content rules.
// It is safe for concurrent use.
type Validator struct {
	allowedMIME map[string]struct{}
	allowedExt  map[string]struct{}
	sizeLimits  []SizeLimit
	defaultMax  int64
	now         func() time.Time
	random      io.Reader
}

// Option configures a Validator.
type Option func(*Validator)

// WithAllowedMIMETypes replaces the MIME type allow-list.
func WithAllowedMIMETypes(types ...string) Option {
	return func(v *Validator) {
		if len(types) > 0 {
			v.allowedMIME = toSet(types)
		}
	}
}

// WithAllowedExtensions replaces the extension allow-list.
func WithAllowedExtensions(exts ...string) Option {
	return func(v *Validator) {
		if len(exts) == 0 {
			return
		}
		normalized := make([]string, 0, len(exts))
		for _, ext := range exts {
			if ext != "" && !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		v.allowedExt = toSet(normalized)
	}
}

// WithSizeLimits replaces the per-type size limits and the fallback limit.
// A non-positive defaultMax keeps the current fallback.
func WithSizeLimits(defaultMax int64, limits ...SizeLimit) Option {
	return func(v *Validator) {
		if defaultMax > 0 {
			v.defaultMax = defaultMax
		}
		if len(limits) > 0 {
			v.sizeLimits = append([]SizeLimit(nil), limits...)
		}
	}
}

// WithClock overrides the time source used for filename prefixes.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithRandom overrides the randomness source used for filename prefixes.
func WithRandom(r io.Reader) Option {
	return func(v *Validator) {
		if r != nil {
			v.random = r
		}
	}
}

// New creates a Validator with the default rules.
func New(opts ...Option) *Validator {
	v := &Validator{
		allowedMIME: toSet(DefaultAllowedMIMETypes),
		allowedExt:  toSet(DefaultAllowedExtensions),
		sizeLimits:  DefaultSizeLimits,
		defaultMax:  DefaultMaxBytes,
		now:         time.Now,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateFile runs every check on an upload and collects all failures.
// Content checks are skipped when content is nil, which is the case for
// metadata-only validation before a presigned upload.
func (v *Validator) ValidateFile(name string, size int64, declaredMIME string, content []byte) Result {
	var errs []string

	fn := v.ValidateFilename(name)
	errs = append(errs, fn.Errors...)

	if !v.IsAllowedExtension(name) {
		errs = append(errs, fmt.Sprintf("File extension '%s' is not allowed", strings.ToLower(filepath.Ext(name))))
	}
	if !v.IsAllowedMIMEType(declaredMIME) {
		errs = append(errs, fmt.Sprintf("File type '%s' is not allowed", declaredMIME))
	}
	if err := v.ValidateSize(size, declaredMIME); err != "" {
		errs = append(errs, err)
	}

	var detected string
	if content != nil {
		cr := v.ValidateContent(content, declaredMIME)
		errs = append(errs, cr.Errors...)
		detected = cr.DetectedMIMEType
	}

	return Result{
		Valid:             len(errs) == 0,
		Errors:            errs,
		SanitizedFilename: fn.Sanitized,
		DetectedMIMEType:  detected,
	}
}

// IsAllowedMIMEType reports whether the declared type is on the allow-list.
func (v *Validator) IsAllowedMIMEType(mimeType string) bool {
	_, ok := v.allowedMIME[strings.ToLower(baseMIME(mimeType))]
	return ok
}

// IsAllowedExtension reports whether the file extension is on the allow-list.
func (v *Validator) IsAllowedExtension(name string) bool {
	_, ok := v.allowedExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MaxSize returns the size limit for the given MIME type.
func (v *Validator) MaxSize(mimeType string) int64 {
	for _, l := range v.sizeLimits {
		if l.Matches(mimeType) {
			return l.MaxBytes
		}
	}
	return v.defaultMax
}

// InspectLimit returns how many leading bytes of a file should be handed to
// ValidateContent. Images are inspected whole so embedded scripts are found
// anywhere in the file.
func (v *Validator) InspectLimit(mimeType string) int64 {
	if isImage(mimeType) {
		return v.MaxSize(mimeType)
	}
	return DefaultInspectBytes
}

// ValidateSize returns an error message, or an empty string when size is acceptable.
func (v *Validator) ValidateSize(size int64, mimeType string) string {
	if size <= 0 {
		return "File is empty"
	}
	limit := v.MaxSize(mimeType)
	if size > limit {
		return fmt.Sprintf("File size %dMB exceeds limit of %dMB", toMB(size), toMB(limit))
	}
	return ""
}

func toMB(n int64) int64 {
	return int64(math.Round(float64(n) / mib))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
	}
	return set
}

func baseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
