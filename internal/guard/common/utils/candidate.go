package utils

import "strings"

// CanonicalCandidate returns a match candidate in canonical form:
// - Trimmed of surrounding whitespace
// - Lowercased
func CanonicalCandidate(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsMalformed reports whether s is empty or whitespace only. Everything else,
// control characters and invalid UTF-8 included, is still scanned.
func IsMalformed(s string) bool {
	return strings.TrimSpace(s) == ""
}
