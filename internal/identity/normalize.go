package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// All stores key on the normalized form; callers must never use a raw email
// as a key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s looks like an email after normalization.
// Deliberately shallow: presence of "@" with something on both sides. Real
// validation happens when mail is actually delivered, which this system
// never does.
func ValidEmail(s string) bool {
	s = NormalizeEmail(s)
	i := strings.Index(s, "@")
	return i > 0 && i < len(s)-1
}
