package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/cwygoda/vidrag/internal/domain"
)

// RefusalAnswer is what the model is told to say when the context lacks the answer.
const RefusalAnswer = "The transcript does not contain this information."

var answerPrompt = template.Must(template.New("answer").Parse(`You are a YouTube RAG assistant.
Use ONLY the context below. If answer not found,
reply: "` + RefusalAnswer + `"

Context:
{{.Context}}

Question:
{{.Question}}
`))

// RenderPrompt fills the answer prompt.
func RenderPrompt(contextText, question string) (string, error) {
	var sb strings.Builder
	err := answerPrompt.Execute(&sb, struct{ Context, Question string }{contextText, question})
	return sb.String(), err
}

// Completer returns a model reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChainBuilder composes answer chains over a shared completer.
type ChainBuilder struct {
	completer Completer
}

// NewChainBuilder creates a ChainBuilder.
func NewChainBuilder(completer Completer) *ChainBuilder {
	return &ChainBuilder{completer: completer}
}

// BuildChain returns a chain answering from retriever's chunks.
func (b *ChainBuilder) BuildChain(retriever domain.Retriever) (domain.Chain, error) {
	if retriever == nil {
		return nil, errors.New("chain: nil retriever")
	}
	return &Chain{retriever: retriever, completer: b.completer}, nil
}

// Chain is retrieve, then prompt, then complete.
type Chain struct {
	retriever domain.Retriever
	completer Completer
}

// Invoke answers question from the retrieved context.
func (c *Chain) Invoke(ctx context.Context, question string) (string, error) {
	docs, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}
	prompt, err := RenderPrompt(strings.Join(docs, "\n\n"), question)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	answer, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
