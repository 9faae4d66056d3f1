package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash is the hex SHA-256 of text with surrounding whitespace removed,
// so re-submitting the same document with trailing newlines hits the cache.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
