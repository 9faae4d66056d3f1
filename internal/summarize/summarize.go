// Package summarize turns cleaned paper text into a title, a summary and
// keywords using a generative backend.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"papersum/internal/logging"
	"papersum/internal/models"
	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/util"
)

// PromptVersion changes whenever the prompt changes, so cached summaries from
// an older prompt are not reused.
const PromptVersion = "v1"

const (
	DefaultMinChars      = 100
	DefaultMaxInputChars = 60000
	DefaultMaxSections   = 8
)

const systemPrompt = "You are an expert research assistant who writes faithful, readable summaries of academic papers."

const summaryPrompt = `Summarize the paper provided as context.

Requirements:
- Write 3 to 5 paragraphs, 300 to 1000 words in total.
- Write mathematics only with $...$ for inline and $$...$$ for display equations. Never use \( \) or \[ \].
- Keep any equation you quote exactly as it appears in the paper.
- Give 5 to 7 keywords.

Respond with one JSON object:
{"title": "...", "summary": "...", "keywords": ["...", "..."]}
If you cannot produce JSON, respond with three sections instead:
Title: ...
Summary: ...
Keywords: comma, separated, list`

const sectionPrompt = `The context is one part of a longer paper. Summarize this part in one or two paragraphs, 80 to 250 words.
Write mathematics only with $...$ or $$...$$ and keep any equation you quote exactly as it appears.

Respond with one JSON object:
{"title": "...", "summary": "...", "keywords": ["...", "..."]}`

type Meta struct {
	Format    Format `json:"format"`
	Attempts  int    `json:"attempts"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Synthetic bool   `json:"synthetic"`
	// Sections counts the section groups summarized separately before the
	// final pass; zero when the text fit in one request.
	Sections  int  `json:"sections,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
}

type Summarizer struct {
	llm           providers.LLMProvider
	policy        retry.Policy
	minChars      int
	maxInputChars int
	maxSections   int
	logger        *zap.Logger
}

type Option func(*Summarizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMinChars(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.minChars = n
		}
	}
}

func WithMaxInputChars(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxInputChars = n
		}
	}
}

func WithMaxSections(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxSections = n
		}
	}
}

func New(llm providers.LLMProvider, policy retry.Policy, opts ...Option) *Summarizer {
	s := &Summarizer{
		llm:           llm,
		policy:        policy,
		minChars:      DefaultMinChars,
		maxInputChars: DefaultMaxInputChars,
		maxSections:   DefaultMaxSections,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckLength rejects text too short to summarize.
func (s *Summarizer) CheckLength(text string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < s.minChars {
		msg := fmt.Sprintf("The document is too short to summarize (at least %d characters are required).", s.minChars)
		return util.E(util.KindValidation, "summarize", msg, util.ErrDocumentTooShort)
	}
	return nil
}

// Summarize returns a summary of cleaned text. Only the length guard produces
// an error: when every backend attempt fails, the synthetic summary is
// returned with Meta.Synthetic set. Text longer than the input limit is
// summarized section by section first, then from those notes.
func (s *Summarizer) Summarize(ctx context.Context, text string) (models.SummaryResult, Meta, error) {
	text = strings.TrimSpace(text)
	if err := s.CheckLength(text); err != nil {
		return models.SummaryResult{}, Meta{}, err
	}
	log := logging.FromContext(ctx, s.logger)

	input, pre := text, Meta{}
	if utf8.RuneCountInString(text) > s.maxInputChars {
		input, pre = s.condense(ctx, text, log)
	}
	result, meta, err := s.generate(ctx, request(summaryPrompt, input), log)
	meta.Sections, meta.Truncated = pre.Sections, pre.Truncated
	if err != nil {
		log.Warn("summarization failed, returning synthetic summary", zap.Int("attempts", meta.Attempts), zap.Error(err))
		meta.Format, meta.Synthetic = FormatSynthetic, true
		return Synthetic(text), meta, nil
	}
	log.Info("summary generated", zap.String("format", string(meta.Format)), zap.String("provider", meta.Provider),
		zap.Int("attempts", meta.Attempts), zap.Int("sections", meta.Sections))
	return result, meta, nil
}

// condense summarizes text one group of sections at a time and returns the
// title line followed by the notes. Groups past maxSections are dropped and
// reported as Truncated; if no group can be summarized it falls back to
// cutting the text at the input limit.
func (s *Summarizer) condense(ctx context.Context, text string, log *zap.Logger) (string, Meta) {
	var meta Meta
	chunks := packSections(SplitSections(text), s.maxInputChars)
	if len(chunks) > s.maxSections {
		chunks, meta.Truncated = chunks[:s.maxSections], true
	}

	notes := []string{HeuristicTitle(text)}
	for i, chunk := range chunks {
		res, _, err := s.generate(ctx, request(sectionPrompt, chunk), log)
		if err != nil {
			log.Warn("section summary failed", zap.Int("section", i), zap.Error(err))
			continue
		}
		notes = append(notes, res.Summary)
		meta.Sections++
	}
	if meta.Sections == 0 {
		input, _ := truncateRunes(text, s.maxInputChars)
		return input, Meta{Truncated: true}
	}
	input, cut := truncateRunes(strings.Join(notes, "\n\n"), s.maxInputChars)
	meta.Truncated = meta.Truncated || cut
	return input, meta
}

func request(prompt, input string) providers.GenerateRequest {
	return providers.GenerateRequest{
		Operation: providers.OpSummarize,
		System:    systemPrompt,
		Prompt:    prompt,
		Context:   []string{input},
		JSON:      true,
	}
}

// generate runs one request under the retry policy and parses the reply.
func (s *Summarizer) generate(ctx context.Context, req providers.GenerateRequest, log *zap.Logger) (models.SummaryResult, Meta, error) {
	var (
		result models.SummaryResult
		meta   Meta
	)
	attempts, err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if s.llm == nil {
			return retry.Permanent(providers.ErrNotConfigured)
		}
		resp, info, err := s.llm.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, providers.ErrNotConfigured) {
				return retry.Permanent(err)
			}
			return err
		}
		res, format, err := Parse(resp.Text)
		if err != nil {
			log.Warn("unparseable summary response", zap.Int("attempt", attempt), zap.String("provider", info.Name), zap.Error(err))
			return err
		}
		result = res
		meta.Format, meta.Provider, meta.Model = format, info.Name, info.Model
		return nil
	})
	meta.Attempts = attempts
	return result, meta, err
}

func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	r := []rune(s)
	return string(r[:max]), true
}

// CacheKey identifies a summary of text under the current prompt.
func CacheKey(text string) string {
	return "summary:" + PromptVersion + ":" + util.ContentHash(text)
}
