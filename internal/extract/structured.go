package extract

import (
	"regexp"
	"strings"

	"papersum/internal/llmjson"
	"papersum/internal/models"
	"papersum/internal/util"
)

var referencesHeading = regexp.MustCompile(`(?im)^[ \t]*(?:#+[ \t]*)?(?:\d+\.?[ \t]*)?(?:references|bibliography|works cited)[ \t]*:?[ \t]*$`)

// ParseStructured decodes a {title, abstract, body} response. Multi-valued
// fields are flattened and missing fields defaulted; only a response with
// neither abstract nor body is rejected.
func ParseStructured(raw string) (models.ExtractionResult, error) {
	obj, err := llmjson.Decode(raw)
	if err != nil {
		return models.ExtractionResult{}, util.E(util.KindParse, "extract", "structured extraction response was not JSON", err)
	}
	res := Normalize(models.ExtractionResult{
		Title:    obj.Text("title"),
		Abstract: obj.Text("abstract", "summary"),
		Body:     obj.Text("body", "content", "text", "sections"),
	})
	if res.Abstract == "" && res.Body == "" {
		return res, util.E(util.KindParse, "extract", "structured extraction response had no content", nil)
	}
	return res, nil
}

// Normalize applies field defaults and drops the reference list from Body.
func Normalize(res models.ExtractionResult) models.ExtractionResult {
	res.Title = strings.Join(strings.Fields(res.Title), " ")
	if res.Title == "" {
		res.Title = models.DefaultTitle
	}
	res.Abstract = strings.TrimSpace(res.Abstract)
	res.Body = strings.TrimSpace(StripReferences(res.Body))
	return res
}

// StripReferences cuts text at the first line that is only a references
// heading.
func StripReferences(text string) string {
	if loc := referencesHeading.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// Compose joins a structured result back into one text for summarization.
func Compose(res models.ExtractionResult) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{res.Title, res.Abstract, res.Body} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
