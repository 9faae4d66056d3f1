package util

import (
	"path/filepath"
	"testing"
)

func TestSafeJoinStaysInRoot(t *testing.T) {
	root := filepath.Join("tmp", "req")
	cases := map[string]string{
		"paper.pdf":        "paper.pdf",
		"../../etc/passwd": "passwd",
		"a/b/../c.txt":     "c.txt",
		"..":               "_",
		"":                 "_",
		"/":                "_",
	}
	for in, want := range cases {
		if got := SafeJoin(root, in); got != filepath.Join(root, want) {
			t.Fatalf("SafeJoin(%q) = %q, want %q", in, got, filepath.Join(root, want))
		}
	}
}

func TestContentHashIgnoresSurroundingSpace(t *testing.T) {
	if ContentHash("abc") != ContentHash("  abc\n\n") {
		t.Fatal("expected trimmed content to hash the same")
	}
	if ContentHash("abc") == ContentHash("abd") {
		t.Fatal("expected different hashes")
	}
}
