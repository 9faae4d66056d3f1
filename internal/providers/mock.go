package providers

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// MockProvider returns deterministic output so the whole pipeline can run
// without network access.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var mockMath = regexp.MustCompile(`\$\$[\s\S]+?\$\$|\$[^$\n]+?\$`)

var mockStopwords = map[string]struct{}{
	"about": {}, "after": {}, "their": {}, "there": {}, "these": {}, "those": {},
	"which": {}, "while": {}, "where": {}, "would": {}, "could": {}, "should": {},
	"other": {}, "being": {}, "between": {}, "through": {}, "under": {}, "using": {},
	"paper": {}, "shows": {}, "shown": {}, "within": {}, "without": {},
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	text := "Mock response."
	if strings.EqualFold(req.Operation, OpSummarize) {
		source := strings.Join(req.Context, "\n\n")
		if source == "" {
			source = req.Prompt
		}
		text = mockSummary(source)
	}
	return GenerateResponse{Text: text}, info, nil
}

func mockSummary(source string) string {
	title := "Mock Paper"
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "$") {
			continue
		}
		if len(line) > 120 {
			line = line[:120]
		}
		title = line
		break
	}
	paragraphs := []string{
		"This is a deterministic mock summary of the submitted paper. It restates the framing of the work without calling a language model.",
		"The document develops its argument over several sections and supports it with analysis of the material it presents.",
	}
	if eq := mockMath.FindString(source); eq != "" {
		paragraphs = append(paragraphs, "A central relation in the text is "+eq+", which is carried through unchanged.")
	}
	paragraphs = append(paragraphs, "Replace the mock provider with a real backend for a faithful summary.")

	payload, _ := json.Marshal(map[string]any{
		"title":    title,
		"summary":  strings.Join(paragraphs, "\n\n"),
		"keywords": topWords(source, 6),
	})
	return string(payload)
}

func topWords(s string, n int) []string {
	counts := map[string]int{}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len([]rune(w)) < 5 {
			continue
		}
		if _, stop := mockStopwords[w]; stop {
			continue
		}
		counts[w]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
