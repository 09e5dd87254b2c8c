// Package llm adapts the Gemini OpenAI-compatible API to the pipeline:
// chat completion for answers and translation, and text embeddings.
package llm

import (
	"context"
	"net/http"

	kitllm "github.com/anatolykoptev/go-kit/llm"

	"github.com/cwygoda/vidrag/internal/config"
)

// NewClient builds the shared chat client.
func NewClient(cfg config.LLMConfig) *kitllm.Client {
	return kitllm.NewClient(cfg.APIBase, cfg.APIKey, cfg.Model,
		kitllm.WithMaxTokens(cfg.MaxTokens),
		kitllm.WithTemperature(cfg.AnswerTemperature),
		kitllm.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
}

// Completer sends single-turn prompts at a fixed temperature.
type Completer struct {
	client      *kitllm.Client
	temperature float64
	maxTokens   int
}

// NewCompleter creates a Completer over client.
func NewCompleter(client *kitllm.Client, temperature float64, maxTokens int) *Completer {
	return &Completer{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Complete returns the model's reply to prompt.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.client.Complete(ctx, "", prompt,
		kitllm.WithChatTemperature(c.temperature),
		kitllm.WithChatMaxTokens(c.maxTokens),
	)
}
