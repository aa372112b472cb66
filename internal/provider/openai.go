package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAI generates text with the OpenAI Responses API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAI creates an [OpenAI] generator.
func NewOpenAI(apiKey, model string, maxTokens int, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}, opts...)
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Name implements [Generator].
func (o *OpenAI) Name() string { return "openai" }

// Generate implements [Generator].
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           pickModel(req.Model, o.model),
		MaxOutputTokens: openai.Int(o.maxTokens),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(req.Prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return nonEmpty(o.Name(), resp.OutputText())
}
