package security

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ContentResult is the outcome of ValidateContent.
type ContentResult struct {
	Valid            bool
	Errors           []string
	DetectedMIMEType string
}

// Leading byte sequences that are never accepted regardless of declared type.
// Binary magics match byte for byte.
var dangerousMagics = [][]byte{
	[]byte("MZ"),
	{0xFF, 0xE0},
}

// Markup prefixes match with ASCII case folding.
var dangerousMarkup = [][]byte{
	[]byte("<script"),
	[]byte("<html"),
	[]byte("<?php"),
}

var zipSignature = []byte("PK\x03\x04")

// Declared types that are ZIP containers and may start with a ZIP local header.
var zipContainers = map[string]struct{}{
	"application/zip": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
}

// Detected types that say nothing about the real format.
var genericTypes = map[string]struct{}{
	"application/octet-stream": {},
	"text/plain":               {},
}

// Pairs of types treated as equivalent when comparing declared and detected types.
var equivalentTypes = [][]string{
	{"image/jpeg", "image/jpg"},
	{"application/javascript", "text/javascript"},
	{"application/xml", "text/xml"},
	{"audio/ogg", "video/ogg", "application/ogg"},
	{"audio/mp4", "audio/x-m4a", "video/mp4"},
	{"audio/wav", "audio/x-wav", "audio/wave"},
	{"video/x-msvideo", "video/avi"},
	{"application/x-rar-compressed", "application/vnd.rar"},
	{"model/gltf+json", "application/json"},
}

// Detected types an application/octet-stream declaration may carry. It is the
// declared type of text and binary 3D formats (.obj, .dae, .x3d, .fbx).
var octetStreamPayloads = []string{"model/", "text/xml", "application/xml"}

var imageScriptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
}

// ValidateContent inspects the leading bytes of a file.
//
// It rejects content starting with a dangerous signature, reports a mismatch
// between the declared type and the type detected from magic numbers and,
// for images, scans the content for embedded scripts.
func (v *Validator) ValidateContent(content []byte, declaredMIME string) ContentResult {
	declared := strings.ToLower(baseMIME(declaredMIME))
	var errs []string

	if hasDangerousSignature(content, declared) {
		errs = append(errs, "File contains potentially dangerous content")
	}

	detected := baseMIME(mimetype.Detect(content).String())
	if !typesCompatible(declared, detected) {
		errs = append(errs, fmt.Sprintf("File content doesn't match declared type. Expected: %s, Detected: %s", declaredMIME, detected))
	}

	if isImage(declared) && containsScript(content) {
		errs = append(errs, "Image file contains potentially malicious scripts")
	}

	return ContentResult{
		Valid:            len(errs) == 0,
		Errors:           errs,
		DetectedMIMEType: detected,
	}
}

// DetectMIMEType returns the content type detected from magic numbers.
func DetectMIMEType(content []byte) string {
	return baseMIME(mimetype.Detect(content).String())
}

func hasDangerousSignature(content []byte, declared string) bool {
	for _, magic := range dangerousMagics {
		if bytes.HasPrefix(content, magic) {
			return true
		}
	}
	for _, markup := range dangerousMarkup {
		if len(content) >= len(markup) && asciiEqualFold(content[:len(markup)], markup) {
			return true
		}
	}
	if bytes.HasPrefix(content, zipSignature) {
		_, ok := zipContainers[declared]
		return !ok
	}
	return false
}

func asciiEqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func containsScript(content []byte) bool {
	for _, re := range imageScriptPatterns {
		if re.Match(content) {
			return true
		}
	}
	return false
}

// typesCompatible reports whether detected content may be labelled as declared.
func typesCompatible(declared, detected string) bool {
	detected = strings.ToLower(detected)
	if detected == "" || declared == "" || declared == detected {
		return true
	}
	if _, ok := genericTypes[detected]; ok {
		return true
	}
	if declared == "application/octet-stream" {
		for _, p := range octetStreamPayloads {
			if strings.HasPrefix(detected, p) {
				return true
			}
		}
		return false
	}
	if equivalent(declared, detected) {
		return true
	}
	return related(declared, detected)
}

func equivalent(a, b string) bool {
	for _, group := range equivalentTypes {
		var hasA, hasB bool
		for _, t := range group {
			hasA = hasA || t == a
			hasB = hasB || t == b
		}
		if hasA && hasB {
			return true
		}
	}
	return false
}

// related reports whether one type is an ancestor of the other in the
// detection tree, e.g. a docx declared and only its zip container detected.
func related(declared, detected string) bool {
	if m := mimetype.Lookup(detected); m != nil {
		for p := m; p != nil; p = p.Parent() {
			if p.Is(declared) {
				return true
			}
		}
	}
	if m := mimetype.Lookup(declared); m != nil {
		for p := m; p != nil; p = p.Parent() {
			if p.Is(detected) {
				return true
			}
		}
	}
	return false
}
