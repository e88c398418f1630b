// Package security validates user supplied files and names before they reach
// object storage.
//
// A Validator combines several independent checks:
//
//   - filename and folder-name rules (length, traversal, reserved names,
//     executable and script extensions, hidden entries) with sanitization
//   - extension and declared MIME type allow-lists
//   - per-type size limits
//   - magic-number inspection of the first bytes of the content, rejecting
//     executables and markup disguised as other formats, detecting a mismatch
//     between declared and actual type and scanning images for embedded scripts
//
// Every check reports human readable messages; ValidateFile collects all of
// them so a client can fix everything in one round trip.
//
// # Usage
//
//	v := security.New()
//	res := v.ValidateFile("report.pdf", size, "application/pdf", head)
//	if !res.Valid {
//	    return res.Err()
//	}
//	key := "uploads/" + res.SanitizedFilename
//
// Allow-lists and size limits can be replaced at runtime with a YAML policy
// file, see LoadPolicy.
package security
