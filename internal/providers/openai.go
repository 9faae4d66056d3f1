package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

// OpenAIProvider talks to OpenAI or any OpenAI-compatible chat completions API.
type OpenAIProvider struct {
	name      string
	keyName   string
	apiKey    string
	model     string
	documents bool
	client    openai.Client
}

func NewOpenAIProvider(keyName, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	return newOpenAICompatible("openai", keyName, resolveKey("OPENAI", keyName, "OPENAI_API_KEY"), model, baseURL, timeout, true)
}

func newOpenAICompatible(name, keyName, apiKey, model, baseURL string, timeout time.Duration, documents bool) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	return &OpenAIProvider{
		name:      name,
		keyName:   keyName,
		apiKey:    apiKey,
		model:     model,
		documents: documents,
		client:    openai.NewClient(opts...),
	}
}

func (o *OpenAIProvider) SupportsDocuments() bool {
	return o.documents && o.apiKey != ""
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: o.name, Model: o.model, Key: o.keyName}
	if o.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("%s key missing for alias %q: %w", o.name, o.keyName, ErrNotConfigured)
	}
	if req.Document != nil && !o.documents {
		return GenerateResponse{}, info, fmt.Errorf("%s does not accept documents: %w", o.name, ErrNotConfigured)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	if req.Document != nil {
		messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(req.Document.DataURL()),
				Filename: openai.String(req.Document.Filename),
			}),
			openai.TextContentPart(req.FullPrompt()),
		}))
	} else {
		messages = append(messages, openai.UserMessage(req.FullPrompt()))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%s generate request failed: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("%s returned empty choices", o.name)
	}
	return GenerateResponse{Text: resp.Choices[0].Message.Content}, info, nil
}
