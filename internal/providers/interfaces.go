package providers

import (
	"context"
	"encoding/base64"
	"strings"
)

const (
	OpSummarize         = "summarize"
	OpExtract           = "extract"
	OpExtractStructured = "extract_structured"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// Document is a file attached to a generation request.
type Document struct {
	Filename  string
	MediaType string
	Data      []byte
}

func (d *Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

func (d *Document) DataURL() string {
	mt := d.MediaType
	if mt == "" {
		mt = "application/pdf"
	}
	return "data:" + mt + ";base64," + d.Base64()
}

type GenerateRequest struct {
	Operation string    `json:"operation"`
	System    string    `json:"system,omitempty"`
	Prompt    string    `json:"prompt"`
	Context   []string  `json:"context"`
	Document  *Document `json:"-"`
	// JSON asks the backend for a JSON object where it has a native switch.
	JSON bool `json:"json,omitempty"`
}

// FullPrompt is the prompt with any context appended.
func (r GenerateRequest) FullPrompt() string {
	if len(r.Context) == 0 {
		return r.Prompt
	}
	return r.Prompt + "\n\nContext:\n" + strings.Join(r.Context, "\n\n")
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

// DocumentReader is implemented by providers that accept Document attachments.
type DocumentReader interface {
	SupportsDocuments() bool
}

func SupportsDocuments(p LLMProvider) bool {
	d, ok := p.(DocumentReader)
	return ok && d.SupportsDocuments()
}
