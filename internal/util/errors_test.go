package util

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := E(KindValidation, "download", "not a PDF", nil)
	wrapped := fmt.Errorf("acquire: %w", base)
	if got := KindOf(wrapped); got != KindValidation {
		t.Fatalf("expected validation kind, got %q", got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty kind for untyped error")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":        {nil, false},
		"untyped":    {errors.New("connection reset"), true},
		"transient":  {E(KindTransient, "download", "timeout", nil), true},
		"parse":      {E(KindParse, "summarize", "bad json", nil), true},
		"validation": {E(KindValidation, "download", "html", nil), false},
		"empty":      {E(KindExtractionEmpty, "extract", "scanned", ErrNoExtractableText), false},
	}
	for name, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%s: got %v want %v", name, got, tc.want)
		}
	}
}

func TestUserMessageHidesInternalText(t *testing.T) {
	internal := errors.New("dial tcp 10.0.0.1:443: i/o timeout")
	if got := UserMessage(internal); got != genericUserMessage {
		t.Fatalf("raw error leaked: %q", got)
	}
	typed := E(KindTransient, "download", "The PDF could not be downloaded.", internal)
	if got := UserMessage(fmt.Errorf("wrap: %w", typed)); got != "The PDF could not be downloaded." {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(typed, internal) {
		t.Fatalf("expected Unwrap to expose cause")
	}
}
