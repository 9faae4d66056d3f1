package util

import "strings"

// SanitizeText drops NUL and other C0 controls that PDF readers emit and
// Postgres text columns reject. CRLF and lone CR become LF, a leading byte
// order mark is removed, and tabs and newlines are kept.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\r':
			return '\n'
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
