package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini generates text with the Gemini API.
type Gemini struct {
	apiKey    string
	model     string
	maxTokens int32
}

// NewGemini creates a [Gemini] generator. The client is built per call
// because construction needs a context.
func NewGemini(apiKey, model string, maxTokens int) *Gemini {
	return &Gemini{apiKey: apiKey, model: model, maxTokens: int32(maxTokens)}
}

// Name implements [Generator].
func (g *Gemini) Name() string { return "gemini" }

// Generate implements [Generator].
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	cc := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}
	result, err := client.Models.GenerateContent(ctx, pickModel(req.Model, g.model), contents, &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return nonEmpty(g.Name(), result.Text())
}
