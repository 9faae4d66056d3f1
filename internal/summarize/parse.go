package summarize

import (
	"regexp"
	"strings"

	"papersum/internal/llmjson"
	"papersum/internal/models"
	"papersum/internal/util"
)

type Format string

const (
	FormatJSON      Format = "json"
	FormatText      Format = "text"
	FormatSynthetic Format = "synthetic"
)

const (
	minKeywords = 5
	maxKeywords = 7
)

var PlaceholderKeywords = []string{"research", "paper", "summary", "analysis", "findings"}

var (
	sectionMarker  = regexp.MustCompile(`(?i)^[#*_>\s]*(title|summary|key\s*words?)[*_\s]*:[*_\s]*(.*)$`)
	sectionHeading = regexp.MustCompile(`(?i)^#+\s*(title|summary|key\s*words?)[*_\s]*$`)
	displayDelims  = regexp.MustCompile(`\\\[[\s\S]+?\\\]`)
	inlineDelims   = regexp.MustCompile(`\\\([\s\S]+?\\\)`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
)

// Parse reads a model response in either shape: a JSON object (possibly
// fenced or wrapped in prose) or free text with Title/Summary/Keywords
// sections. Both shapes go through the same Normalize.
func Parse(raw string) (models.SummaryResult, Format, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.SummaryResult{}, "", util.E(util.KindParse, "summarize", "empty model response", nil)
	}
	if obj, err := llmjson.Decode(raw); err == nil {
		res := models.SummaryResult{
			Title:    obj.Text("title"),
			Summary:  obj.Text("summary", "abstract", "body"),
			Keywords: obj.List("keywords", "key_words", "tags"),
		}
		if strings.TrimSpace(res.Summary) != "" {
			return Normalize(res), FormatJSON, nil
		}
	}
	res, ok := parseSections(raw)
	if !ok {
		if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "```") {
			return models.SummaryResult{}, "", util.E(util.KindParse, "summarize", "malformed structured response", nil)
		}
		res = models.SummaryResult{Summary: raw}
	}
	if strings.TrimSpace(res.Summary) == "" {
		return models.SummaryResult{}, "", util.E(util.KindParse, "summarize", "response has no summary section", nil)
	}
	return Normalize(res), FormatText, nil
}

// parseSections collects the lines under each section marker. It reports
// false when the text has no markers at all.
func parseSections(raw string) (models.SummaryResult, bool) {
	sections := map[string][]string{}
	current := ""
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := sectionMarker.FindStringSubmatch(trimmed); m != nil {
			current = sectionName(m[1])
			if rest := strings.Trim(m[2], "*_ "); rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if m := sectionHeading.FindStringSubmatch(trimmed); m != nil {
			current = sectionName(m[1])
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], strings.TrimRight(line, " \t"))
		}
	}
	if current == "" {
		return models.SummaryResult{}, false
	}
	summary := strings.TrimSpace(strings.Join(sections["summary"], "\n"))
	return models.SummaryResult{
		Title:    strings.Join(sections["title"], " "),
		Summary:  extraNewlines.ReplaceAllString(summary, "\n\n"),
		Keywords: llmjson.SplitList(strings.Join(sections["keywords"], "\n")),
	}, true
}

func sectionName(label string) string {
	label = strings.ToLower(label)
	if strings.HasPrefix(label, "key") {
		return "keywords"
	}
	return label
}

// Normalize applies the one default policy shared by both response shapes.
func Normalize(res models.SummaryResult) models.SummaryResult {
	res.Title = strings.Trim(strings.Join(strings.Fields(res.Title), " "), `"'*#_ `)
	if res.Title == "" {
		res.Title = models.DefaultTitle
	}
	res.Summary = FixMathDelimiters(strings.TrimSpace(res.Summary))
	res.Keywords = normalizeKeywords(res.Keywords)
	return res
}

// FixMathDelimiters rewrites \( \) and \[ \] spans to $ and $$.
func FixMathDelimiters(s string) string {
	s = displayDelims.ReplaceAllStringFunc(s, func(m string) string {
		return "$$" + m[2:len(m)-2] + "$$"
	})
	return inlineDelims.ReplaceAllStringFunc(s, func(m string) string {
		return "$" + m[2:len(m)-2] + "$"
	})
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, maxKeywords)
	seen := map[string]struct{}{}
	add := func(k string) {
		k = strings.Trim(strings.Join(strings.Fields(k), " "), `"'*_.;, `)
		key := strings.ToLower(k)
		if k == "" || len(out) >= maxKeywords {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	for _, k := range in {
		add(k)
	}
	for _, k := range PlaceholderKeywords {
		if len(out) >= minKeywords {
			break
		}
		add(k)
	}
	return out
}
