package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"papersum/internal/providers"
	"papersum/internal/retry"
	"papersum/internal/util"
)

type llmMock struct {
	mock.Mock
}

func (m *llmMock) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(providers.GenerateResponse), args.Get(1).(providers.ProviderInfo), args.Error(2)
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: func(time.Duration) {}}
}

const validJSON = `{"title":"Widgets","summary":"Para one.\n\nPara two.","keywords":["a","b","c","d","e","f"]}`

func TestGuardBoundary(t *testing.T) {
	llm := &llmMock{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{Text: validJSON}, providers.ProviderInfo{Name: "openai", Model: "m"}, nil)
	s := New(llm, testPolicy())

	_, _, err := s.Summarize(context.Background(), strings.Repeat("a", 99))
	require.Equal(t, util.KindValidation, util.KindOf(err))
	require.ErrorIs(t, err, util.ErrDocumentTooShort)
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	res, meta, err := s.Summarize(context.Background(), strings.Repeat("a", 100))
	require.NoError(t, err)
	require.Equal(t, "Widgets", res.Title)
	require.Equal(t, FormatJSON, meta.Format)
	require.Equal(t, "openai", meta.Provider)
	require.Equal(t, 1, meta.Attempts)
}

func TestSyntheticFallbackWhenEveryAttemptFails(t *testing.T) {
	llm := &llmMock{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("503 unavailable"))
	text := "arXiv:2101.00001\nDeep Widgets for Everyone\n" + strings.Repeat("body text ", 20)

	res, meta, err := New(llm, testPolicy()).Summarize(context.Background(), text)
	require.NoError(t, err)
	require.True(t, meta.Synthetic)
	require.Equal(t, FormatSynthetic, meta.Format)
	require.Equal(t, 3, meta.Attempts)
	require.Equal(t, "Deep Widgets for Everyone", res.Title)
	require.NotEmpty(t, res.Summary)
	require.Len(t, strings.Split(res.Summary, "\n\n"), 4)
	require.NotEmpty(t, res.Keywords)
	llm.AssertNumberOfCalls(t, "Generate", 3)
}

func TestParseFailureCountsAsAttempt(t *testing.T) {
	llm := &llmMock{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{Text: `{"title": "broken`}, providers.ProviderInfo{}, nil).Once()
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{Text: validJSON}, providers.ProviderInfo{Name: "groq"}, nil).Once()

	res, meta, err := New(llm, testPolicy()).Summarize(context.Background(), strings.Repeat("word ", 40))
	require.NoError(t, err)
	require.Equal(t, 2, meta.Attempts)
	require.Equal(t, "Widgets", res.Title)
}

func TestNotConfiguredIsNotRetried(t *testing.T) {
	llm := &llmMock{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, providers.ProviderInfo{}, providers.ErrNotConfigured)

	_, meta, err := New(llm, testPolicy()).Summarize(context.Background(), strings.Repeat("word ", 40))
	require.NoError(t, err)
	require.True(t, meta.Synthetic)
	require.Equal(t, 1, meta.Attempts)
}

func TestEndToEndWithMockProviderKeepsEquation(t *testing.T) {
	var b strings.Builder
	b.WriteString("A Study of Integrals in Widget Theory\n")
	for b.Len() < 2500 {
		b.WriteString("Widget theory studies integrals and measurement of quantum widgets. ")
	}
	b.WriteString("\n$$\\int_0^1 x dx$$\n")
	for b.Len() < 5000 {
		b.WriteString("Measurement results confirm the integral behaviour of widgets. ")
	}

	res, meta, err := New(providers.NewMockProvider(), testPolicy()).Summarize(context.Background(), b.String())
	require.NoError(t, err)
	require.False(t, meta.Synthetic)
	require.Contains(t, res.Summary, `$$\int_0^1 x dx$$`)
	require.Equal(t, "A Study of Integrals in Widget Theory", res.Title)
	require.GreaterOrEqual(t, len(res.Keywords), 5)
	require.LessOrEqual(t, len(res.Keywords), 7)
}

type fakeLLM func(req providers.GenerateRequest) (string, error)

func (f fakeLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	text, err := f(req)
	return providers.GenerateResponse{Text: text}, providers.ProviderInfo{Name: "fake"}, err
}

func longPaper() string {
	body := strings.Repeat("widgets route data ", 8)
	return "Widget Routing at Scale\n" +
		"1 Introduction\n" + body + "\n" +
		"2 Method\n" + body + "\n" +
		"3 Results\n" + body
}

// sectionNotes answers section requests with a note naming the chunk's first
// line and records the context of the final request.
func sectionNotes(t *testing.T, sectionCalls *int, final *string) fakeLLM {
	return func(req providers.GenerateRequest) (string, error) {
		if req.Prompt == sectionPrompt {
			*sectionCalls++
			first, _, _ := strings.Cut(req.Context[0], "\n")
			b, err := json.Marshal(map[string]any{"title": "t", "summary": "Notes on " + first, "keywords": []string{"a", "b", "c", "d", "e"}})
			require.NoError(t, err)
			return string(b), nil
		}
		*final = req.Context[0]
		return validJSON, nil
	}
}

func TestLongInputIsSummarizedBySection(t *testing.T) {
	var (
		calls int
		final string
	)
	res, meta, err := New(sectionNotes(t, &calls, &final), testPolicy(), WithMaxInputChars(200)).Summarize(context.Background(), longPaper())
	require.NoError(t, err)
	require.Equal(t, "Widgets", res.Title)
	require.Equal(t, 3, calls)
	require.Equal(t, 3, meta.Sections)
	require.False(t, meta.Truncated)
	require.True(t, strings.HasPrefix(final, "Widget Routing at Scale\n\n"))
	require.Contains(t, final, "Notes on 2 Method")
	require.Contains(t, final, "Notes on 3 Results")
}

func TestSectionLimitMarksTruncated(t *testing.T) {
	var (
		calls int
		final string
	)
	_, meta, err := New(sectionNotes(t, &calls, &final), testPolicy(), WithMaxInputChars(200), WithMaxSections(2)).Summarize(context.Background(), longPaper())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 2, meta.Sections)
	require.True(t, meta.Truncated)
	require.NotContains(t, final, "3 Results")
}

func TestSectionFailuresFallBackToCut(t *testing.T) {
	var final string
	llm := fakeLLM(func(req providers.GenerateRequest) (string, error) {
		if req.Prompt == sectionPrompt {
			return "", errors.New("503 unavailable")
		}
		final = req.Context[0]
		return validJSON, nil
	})

	_, meta, err := New(llm, testPolicy(), WithMaxInputChars(150)).Summarize(context.Background(), strings.Repeat("é", 400))
	require.NoError(t, err)
	require.False(t, meta.Synthetic)
	require.True(t, meta.Truncated)
	require.Zero(t, meta.Sections)
	require.Len(t, []rune(final), 150)
}

func TestSplitSections(t *testing.T) {
	secs := SplitSections("Title line\nabstract text\n1 Introduction\nintro\n2.1. Setup\nsetup body\nIV. Results\nnumbers")
	require.Equal(t, []Section{
		{Body: "Title line\nabstract text"},
		{Heading: "1 Introduction", Body: "intro"},
		{Heading: "2.1. Setup", Body: "setup body"},
		{Heading: "IV. Results", Body: "numbers"},
	}, secs)

	chunks := packSections(secs, 50)
	require.Equal(t, []string{
		"Title line\nabstract text\n\n1 Introduction\nintro",
		"2.1. Setup\nsetup body\n\nIV. Results\nnumbers",
	}, chunks)
}
