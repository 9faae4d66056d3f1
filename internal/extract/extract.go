// Package extract turns a stored document into cleaned text. PDFs go to a
// document-capable model first and fall back to local parsing.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"papersum/internal/acquire"
	"papersum/internal/cleaner"
	"papersum/internal/logging"
	"papersum/internal/models"
	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/util"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

func KindForExt(ext string) Kind {
	if strings.EqualFold(strings.TrimPrefix(ext, "."), acquire.ExtPDF) {
		return KindPDF
	}
	return KindText
}

type Method string

const (
	MethodRemote Method = "remote"
	MethodLocal  Method = "local"
	MethodText   Method = "text"
	// MethodAbstract marks text that came from the arXiv abstract lookup
	// instead of the document itself.
	MethodAbstract Method = "abstract"
)

type Meta struct {
	Method         Method                   `json:"method"`
	RemoteAttempts int                      `json:"remote_attempts"`
	Pages          int                      `json:"pages,omitempty"`
	Structured     *models.ExtractionResult `json:"structured,omitempty"`
}

// LocalReader reads a PDF without any network calls.
type LocalReader func(path string) (text string, pages int, err error)

const (
	msgEmptyPDF  = "No text could be extracted from this PDF. It may be scanned or encrypted; run it through OCR and upload the text instead."
	msgEmptyText = "The document contains no text."
)

const extractSystem = "You are a meticulous reader of academic papers. You transcribe, you do not summarize."

const extractPrompt = `Read the attached paper and return its text.
- Include the title, the abstract and the body in reading order.
- Ignore running headers, footers, page numbers and the reference list.
- Preserve every equation in LaTeX, using $...$ for inline math and $$...$$ for display math. Never use \( \) or \[ \].
- Return plain text only, with no commentary.`

const structuredPrompt = extractPrompt + `
Respond with a single JSON object and nothing else:
{"title": "...", "abstract": "...", "body": "..."}`

type Extractor struct {
	llm        providers.LLMProvider
	policy     retry.Policy
	structured bool
	local      LocalReader
	logger     *zap.Logger
}

type Option func(*Extractor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithLocalReader(r LocalReader) Option {
	return func(e *Extractor) {
		if r != nil {
			e.local = r
		}
	}
}

// WithStructured asks the remote model for {title, abstract, body} JSON.
func WithStructured(on bool) Option {
	return func(e *Extractor) { e.structured = on }
}

func New(llm providers.LLMProvider, policy retry.Policy, opts ...Option) *Extractor {
	e := &Extractor{llm: llm, policy: policy, local: ReadPDF, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the cleaned text of the document at path.
func (e *Extractor) Extract(ctx context.Context, path string, kind Kind) (string, Meta, error) {
	if kind == KindText {
		return e.extractText(path)
	}
	log := logging.FromContext(ctx, e.logger)
	var meta Meta

	if e.llm != nil && providers.SupportsDocuments(e.llm) {
		text, structured, attempts, err := e.remote(ctx, path)
		meta.RemoteAttempts = attempts
		if err == nil {
			meta.Method = MethodRemote
			meta.Structured = structured
			log.Info("remote extraction succeeded", zap.Int("attempts", attempts), zap.Int("chars", len(text)))
			return text, meta, nil
		}
		log.Warn("remote extraction failed, using local reader", zap.Int("attempts", attempts), zap.Error(err))
	}

	meta.Method = MethodLocal
	raw, pages, err := e.local(path)
	meta.Pages = pages
	if err != nil {
		return "", meta, util.E(util.KindExtractionEmpty, "extract", msgEmptyPDF, err)
	}
	text := cleaner.Clean(raw)
	if text == "" {
		return "", meta, util.E(util.KindExtractionEmpty, "extract", msgEmptyPDF, util.ErrNoExtractableText)
	}
	log.Info("local extraction succeeded", zap.Int("pages", pages), zap.Int("chars", len(text)))
	return text, meta, nil
}

func (e *Extractor) extractText(path string) (string, Meta, error) {
	meta := Meta{Method: MethodText}
	raw, err := acquire.ReadTextFile(path)
	if err != nil {
		return "", meta, util.E(util.KindValidation, "extract", "The text file could not be read.", err)
	}
	text := cleaner.Clean(raw)
	if text == "" {
		return "", meta, util.E(util.KindExtractionEmpty, "extract", msgEmptyText, util.ErrNoExtractableText)
	}
	return text, meta, nil
}

func (e *Extractor) remote(ctx context.Context, path string) (string, *models.ExtractionResult, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, 0, fmt.Errorf("read pdf: %w", err)
	}
	req := providers.GenerateRequest{
		Operation: providers.OpExtract,
		System:    extractSystem,
		Prompt:    extractPrompt,
		Document:  &providers.Document{Filename: filepath.Base(path), MediaType: "application/pdf", Data: data},
	}
	if e.structured {
		req.Operation = providers.OpExtractStructured
		req.Prompt = structuredPrompt
		req.JSON = true
	}

	var raw string
	attempts, err := e.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, _, err := e.llm.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, providers.ErrNotConfigured) {
				return retry.Permanent(err)
			}
			return err
		}
		if strings.TrimSpace(resp.Text) == "" {
			return errors.New("empty extraction response")
		}
		raw = resp.Text
		return nil
	})
	if err != nil {
		return "", nil, attempts, err
	}

	var structured *models.ExtractionResult
	if e.structured {
		res, err := ParseStructured(raw)
		if err != nil {
			return "", nil, attempts, err
		}
		structured = &res
		raw = Compose(res)
	}
	text := cleaner.Clean(raw)
	if text == "" {
		return "", nil, attempts, errors.New("remote extraction returned no text")
	}
	return text, structured, attempts, nil
}
