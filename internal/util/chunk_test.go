package util

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextCutsAtWhitespace(t *testing.T) {
	text := strings.Repeat("widget ", 40)
	chunks := ChunkText(text, 50, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 50 || !strings.HasSuffix(c, "widget") {
			t.Fatalf("bad chunk %q", c)
		}
	}
	if got := strings.Join(chunks, " "); got != strings.TrimSpace(text) {
		t.Fatalf("chunks lost text: %q", got)
	}
}

func TestChunkTextPrefersNewline(t *testing.T) {
	got := ChunkText("first line here\nsecond part of it", 25, 0)
	want := []string{"first line here", "second part of it"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestChunkTextHardCutAndOverlap(t *testing.T) {
	got := ChunkText(strings.Repeat("é", 25), 10, 2)
	want := []string{strings.Repeat("é", 10), strings.Repeat("é", 10), strings.Repeat("é", 9)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := ChunkText("   ", 10, 0); len(got) != 0 {
		t.Fatalf("expected no chunks for blank text, got %q", got)
	}
}
