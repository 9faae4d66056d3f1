// Package render turns a SummaryResult into the markdown stored in history and
// the HTML returned to clients. Math spans survive both steps verbatim.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"papersum/internal/models"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithXHTML(),
	),
)

var (
	mathPattern        = regexp.MustCompile(`\$\$[\s\S]+?\$\$|\$[^\$\n]+?\$`)
	placeholderPattern = regexp.MustCompile(`PSMATH(\d+)Z`)
)

// Markdown is the canonical text stored in SummaryHistory.Summary.
func Markdown(res models.SummaryResult) string {
	var b strings.Builder
	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = models.DefaultTitle
	}
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(res.Summary))
	if len(res.Keywords) > 0 {
		b.WriteString("\n\n**Keywords:** ")
		b.WriteString(strings.Join(res.Keywords, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// HTML converts markdown to HTML. Raw HTML in the input is not passed
// through. `$...$` and `$$...$$` spans are emitted escaped but otherwise
// untouched, wrapped in math spans for a client-side renderer.
func HTML(markdown string) string {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return ""
	}

	var spans []string
	held := mathPattern.ReplaceAllStringFunc(text, func(m string) string {
		spans = append(spans, m)
		return fmt.Sprintf("PSMATH%dZ", len(spans)-1)
	})

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(held), &out); err != nil {
		return "<pre>" + template.HTMLEscapeString(text) + "</pre>"
	}

	return placeholderPattern.ReplaceAllStringFunc(out.String(), func(tok string) string {
		sub := placeholderPattern.FindStringSubmatch(tok)
		var i int
		if _, err := fmt.Sscanf(sub[1], "%d", &i); err != nil || i >= len(spans) {
			return tok
		}
		span := spans[i]
		class := "math inline"
		if strings.HasPrefix(span, "$$") {
			class = "math display"
		}
		return `<span class="` + class + `">` + template.HTMLEscapeString(span) + `</span>`
	})
}

// Summary returns the stored markdown for res and the HTML shown to callers.
func Summary(res models.SummaryResult) (markdown, html string) {
	markdown = Markdown(res)
	return markdown, HTML(markdown)
}
