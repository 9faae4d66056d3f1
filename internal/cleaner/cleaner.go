// Package cleaner normalizes text extracted from papers while keeping LaTeX
// math spans byte-for-byte intact.
package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"papersum/internal/util"
)

const (
	tokenOpen  = "\uE000"
	tokenClose = "\uE001"

	// maxPasses bounds the fixpoint loop; real documents settle in two.
	maxPasses = 6
	// maxRounds bounds re-holding math after a round of cleaning, which can
	// pair stray dollar signs differently once noise between them is gone.
	maxRounds = 8
)

var (
	// One alternation, scanned left to right, so a held span never contains
	// another span's token.
	mathSpan  = regexp.MustCompile(`\$\$[\s\S]+?\$\$|\$[^$\n]+?\$`)
	mathToken = regexp.MustCompile(tokenOpen + `(\d+)` + tokenClose)
	sentinels = strings.NewReplacer(tokenOpen, "", tokenClose, "")

	arxivID       = regexp.MustCompile(`(?i)\barXiv:\s*\d{4}\.\d{4,5}(?:v\d+)?(?:\s*\[[a-z.\-]+\])?`)
	pacsLine      = regexp.MustCompile(`(?mi)^[ \t]*PACS(?:[ \t]+numbers?)?[ \t]*[:.][^\n\x{E000}]*`)
	citation      = regexp.MustCompile(`\[\d+(?:\s*[,\x{2013}-]\s*\d+)*\]`)
	bracketRef    = regexp.MustCompile(`(?i)\[(?:fig(?:ure)?|tab(?:le)?|eq(?:uation)?)\.?\s*\d+[a-z]?\]`)
	doi           = regexp.MustCompile(`(?i)\bdoi:\s*[^\s$\x{E000}\x{E001}]+|\b10\.\d{4,9}/[^\s$\x{E000}\x{E001}]+`)
	dottedTriplet = regexp.MustCompile(`\b\d+\.\d+\.\d+\b`)
	pageFurniture = regexp.MustCompile(`(?mi)^[ \t]*(?:\d{1,4}|page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?)[ \t]*$`)

	hyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)
	softHyphen  = regexp.MustCompile(`(\p{Ll})- (\p{Ll})`)

	horizontalSpace  = regexp.MustCompile(`[ \t\f\v\r\x{00A0}]+`)
	lineEdgeSpace    = regexp.MustCompile(`(?m)^ +| +$`)
	spaceBeforePunct = regexp.MustCompile(` +([.,;:])`)
	blankLines       = regexp.MustCompile(`\n{3,}`)

	slashCommand = regexp.MustCompile(`(^|[^:/\w])//([A-Za-z]{2,})`)
)

// Clean strips citation markers, identifiers, page furniture, hyphenation
// artifacts and whitespace noise from text. Math spans ($...$ and $$...$$)
// come back exactly as they went in. Clean is idempotent, and if anything
// goes wrong mid-way it returns the input unchanged.
func Clean(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()

	s := util.SanitizeText(sentinels.Replace(text))
	for i := 0; i < maxRounds && s != ""; i++ {
		next := cleanRound(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanRound(s string) string {
	s, spans := holdMath(s)
	for i := 0; i < maxPasses; i++ {
		next := pass(s)
		if next == s {
			break
		}
		s = next
	}
	return restoreMath(s, spans)
}

func holdMath(s string) (string, []string) {
	spans := make([]string, 0, 4)
	hold := func(m string) string {
		spans = append(spans, m)
		return tokenOpen + strconv.Itoa(len(spans)-1) + tokenClose
	}
	return mathSpan.ReplaceAllStringFunc(s, hold), spans
}

func restoreMath(s string, spans []string) string {
	return mathToken.ReplaceAllStringFunc(s, func(tok string) string {
		m := mathToken.FindStringSubmatch(tok)
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx >= len(spans) {
			return ""
		}
		return spans[idx]
	})
}

func pass(s string) string {
	s = arxivID.ReplaceAllString(s, "")
	s = pacsLine.ReplaceAllString(s, "")
	s = bracketRef.ReplaceAllString(s, "")
	s = citation.ReplaceAllString(s, "")
	s = doi.ReplaceAllString(s, "")
	s = dottedTriplet.ReplaceAllString(s, "")
	s = pageFurniture.ReplaceAllString(s, "")

	s = hyphenBreak.ReplaceAllString(s, "$1$2")
	s = softHyphen.ReplaceAllString(s, "$1$2")

	s = horizontalSpace.ReplaceAllString(s, " ")
	s = lineEdgeSpace.ReplaceAllString(s, "")
	s = spaceBeforePunct.ReplaceAllString(s, "$1")
	s = blankLines.ReplaceAllString(s, "\n\n")

	s = slashCommand.ReplaceAllString(s, `$1\$2`)
	return strings.TrimSpace(s)
}
