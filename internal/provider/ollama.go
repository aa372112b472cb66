package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// Ollama generates text with a local Ollama server.
type Ollama struct {
	client    *api.Client
	model     string
	maxTokens int
}

// NewOllama creates an [Ollama] generator for host.
func NewOllama(host, model string, maxTokens int) *Ollama {
	if host == "" {
		host = DefaultOllamaHost
	}
	parsed, err := url.Parse(host)
	if err != nil {
		parsed, _ = url.Parse(DefaultOllamaHost)
	}
	return &Ollama{
		client:    api.NewClient(parsed, http.DefaultClient),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name implements [Generator].
func (o *Ollama) Name() string { return "ollama" }

// Generate implements [Generator].
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	stream := false
	chat := &api.ChatRequest{
		Model:    pickModel(req.Model, o.model),
		Messages: []api.Message{{Role: "user", Content: req.Prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"num_predict": o.maxTokens,
		},
	}

	var response api.ChatResponse
	err := o.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	return nonEmpty(o.Name(), response.Message.Content)
}
