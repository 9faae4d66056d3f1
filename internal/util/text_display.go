package util

import (
	"strings"
	"unicode"
)

// DisplaySnippet flattens s to one printable line of at most maxRunes runes,
// adding "..." when it was cut.
func DisplaySnippet(s string, maxRunes int) string {
	return trimClean(s, maxRunes)
}

// MarkdownTitle returns the text of the first non-empty line of a rendered
// summary with any heading marker removed.
func MarkdownTitle(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	return ""
}

func trimClean(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 420
	}
	s = normalizeWhitespace(SanitizeText(s))

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsPrint(r) {
			out = append(out, r)
		}
	}
	runes := []rune(strings.TrimSpace(string(out)))
	if len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return string(runes)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
