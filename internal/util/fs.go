package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path and its parents. "" and "." are no-ops.
func EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins only the final element of name onto root, so a caller-given
// name can never escape root. Names with no usable base map to "_".
func SafeJoin(root, name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		base = "_"
	}
	return filepath.Join(root, base)
}
