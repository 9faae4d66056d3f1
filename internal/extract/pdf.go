package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"papersum/internal/util"
)

// ReadPDF extracts plain text page by page. Pages that fail to decode are
// skipped. A document with no recoverable text yields util.ErrNoExtractableText.
func ReadPDF(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages = r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	text = util.SanitizeText(b.String())
	if text == "" {
		return "", pages, util.ErrNoExtractableText
	}
	return text, pages, nil
}
