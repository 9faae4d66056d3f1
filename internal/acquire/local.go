package acquire

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"papersum/internal/util"
)

const (
	ExtPDF = "pdf"
	ExtTXT = "txt"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	msgBadExtension     = "Only .pdf and .txt files are supported."
)

// AllowedExtension returns the lower-cased extension ("pdf" or "txt") and
// whether it is accepted.
func AllowedExtension(name string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case ExtPDF, ExtTXT:
		return ext, true
	}
	return ext, false
}

// SanitizeFilename reduces name to a safe ASCII base name: path separators
// become spaces, whitespace runs become underscores, anything else outside
// [A-Za-z0-9_.-] is dropped, and leading dots or underscores are trimmed.
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}

// SaveUpload writes r into the scratch dir under a sanitized name and returns
// the path and extension.
func SaveUpload(scratch *Scratch, filename string, r io.Reader, maxBytes int64) (string, string, error) {
	ext, ok := AllowedExtension(filename)
	if !ok {
		return "", "", util.E(util.KindValidation, "upload", msgBadExtension, fmt.Errorf("extension %q", ext))
	}
	safe := SanitizeFilename(filename)
	if safe == "" || strings.TrimSuffix(safe, "."+ext) == "" {
		safe = "upload." + ext
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	path := scratch.Path(safe)
	if _, err := writeCapped(path, r, maxBytes); err != nil {
		if errors.Is(err, errTooLarge) {
			return "", "", util.E(util.KindValidation, "upload", msgTooLarge, err)
		}
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	return path, ext, nil
}

// ReadTextFile reads a plain-text document, dropping invalid UTF-8.
func ReadTextFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s, nil
}
