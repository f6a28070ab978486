package repository

import "strings"

// DecodeShopped maps the textual is_shopped encoding to a bool.
// "true" and "1" are true, "false" and "0" are false (case-insensitive);
// any other value decodes to false. Callers rely on the fallback, keep it.
func DecodeShopped(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// EncodeShopped is the textual form written on insert.
func EncodeShopped(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
