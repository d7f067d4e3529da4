// validation.go - Upload filename sanitization.
package server

import "strings"

// sanitizeFileName reduces a client-supplied filename to a safe flat storage
// key: directory components and traversal sequences are stripped, anything
// outside [A-Za-z0-9._-] becomes an underscore, and leading/trailing dots
// and underscores are trimmed. Returns "" when nothing safe remains, which
// callers must treat as invalid input.
func sanitizeFileName(raw string) string {
	// Keep only the last path element, accepting both separators.
	if i := strings.LastIndexAny(raw, `/\`); i >= 0 {
		raw = raw[i+1:]
	}

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	// Collapse traversal remnants: ".." must never survive.
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.Trim(name, "._")

	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
