package summarize

import (
	"strings"
	"unicode/utf8"

	"papersum/internal/models"
)

const fallbackTitle = "Research Paper"

var syntheticParagraphs = []string{
	"This document presents research in its field. An automated summary could not be generated right now, so this overview is a generic placeholder rather than a reading of the paper.",
	"Papers of this kind introduce a problem setting, describe the methods used to address it and report results that support their conclusions.",
	"Consult the original text for the specific contributions, equations and experimental details, which this placeholder does not reproduce.",
	"Please try again later for a complete model-generated summary.",
}

// Synthetic builds the generic fallback summary for text.
func Synthetic(text string) models.SummaryResult {
	kw := make([]string, len(PlaceholderKeywords))
	copy(kw, PlaceholderKeywords)
	return models.SummaryResult{
		Title:    HeuristicTitle(text),
		Summary:  strings.Join(syntheticParagraphs, "\n\n"),
		Keywords: kw,
	}
}

// HeuristicTitle returns the first line of 10 to 200 characters that is not
// metadata, or "Research Paper".
func HeuristicTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if strings.Contains(lower, "arxiv") || strings.Contains(lower, "doi") ||
			strings.Contains(lower, "abstract") || strings.Contains(lower, "keywords") {
			continue
		}
		if n := utf8.RuneCountInString(line); n >= 10 && n <= 200 {
			return line
		}
	}
	return fallbackTitle
}
