package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"papersum/internal/util"
)

// Numbered headings: "2 Method", "3.1. Setup", "IV. Results".
var numberedSectionHeading = regexp.MustCompile(`(?m)^[ \t]*((?:\d+(?:\.\d+)*\.?|[IVX]+\.)[ \t]+[A-Z][^\n]{0,100}?)[ \t]*$`)

type Section struct {
	Heading string
	Body    string
}

// SplitSections cuts text at numbered headings. Text before the first heading
// becomes a section with an empty Heading.
func SplitSections(text string) []Section {
	var out []Section
	add := func(heading, body string) {
		heading, body = strings.TrimSpace(heading), strings.TrimSpace(body)
		if heading != "" || body != "" {
			out = append(out, Section{Heading: heading, Body: body})
		}
	}
	heading, prev := "", 0
	for _, loc := range numberedSectionHeading.FindAllStringSubmatchIndex(text, -1) {
		add(heading, text[prev:loc[0]])
		heading, prev = text[loc[2]:loc[3]], loc[1]
	}
	add(heading, text[prev:])
	return out
}

func (s Section) text() string {
	if s.Heading == "" {
		return s.Body
	}
	if s.Body == "" {
		return s.Heading
	}
	return s.Heading + "\n" + s.Body
}

// packSections groups consecutive sections into chunks of at most max runes.
// A section longer than max is split on its own.
func packSections(sections []Section, max int) []string {
	var (
		chunks []string
		cur    []string
		size   int
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, "\n\n"))
		}
		cur, size = nil, 0
	}
	for _, sec := range sections {
		block := sec.text()
		n := utf8.RuneCountInString(block)
		if n > max {
			flush()
			chunks = append(chunks, util.ChunkText(block, max, 0)...)
			continue
		}
		if len(cur) > 0 && size+2+n > max {
			flush()
		}
		if len(cur) > 0 {
			size += 2
		}
		cur = append(cur, block)
		size += n
	}
	flush()
	return chunks
}
