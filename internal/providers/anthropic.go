package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

type AnthropicProvider struct {
	keyName string
	apiKey  string
	model   string
	client  anthropic.Client
}

func NewAnthropicProvider(keyName, model string, timeout time.Duration) *AnthropicProvider {
	apiKey := resolveKey("ANTHROPIC", keyName, "ANTHROPIC_API_KEY")
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &AnthropicProvider{
		keyName: keyName,
		apiKey:  apiKey,
		model:   model,
		client:  anthropic.NewClient(opts...),
	}
}

func (a *AnthropicProvider) SupportsDocuments() bool {
	return a.apiKey != ""
}

func (a *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "anthropic", Model: a.model, Key: a.keyName}
	if a.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("anthropic key missing for alias %q: %w", a.keyName, ErrNotConfigured)
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if req.Document != nil {
		blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
			Data: req.Document.Base64(),
		}))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.FullPrompt()))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("anthropic generate request failed: %w", err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return GenerateResponse{}, info, fmt.Errorf("anthropic returned no text content")
	}
	return GenerateResponse{Text: b.String()}, info, nil
}
