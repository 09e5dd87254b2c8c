package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	docs  []string
	err   error
	query string
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	r.query = query
	return r.docs, r.err
}

type recordingCompleter struct {
	reply  string
	err    error
	prompt string
}

func (c *recordingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.reply, c.err
}

func TestRenderPrompt(t *testing.T) {
	p, err := RenderPrompt("ctx one\n\nctx two", "Who?")
	require.NoError(t, err)
	assert.Contains(t, p, "You are a YouTube RAG assistant.")
	assert.Contains(t, p, "Use ONLY the context below.")
	assert.Contains(t, p, `reply: "The transcript does not contain this information."`)
	assert.Contains(t, p, "Context:\nctx one\n\nctx two\n")
	assert.Contains(t, p, "Question:\nWho?\n")
}

func TestChain_Invoke(t *testing.T) {
	r := &stubRetriever{docs: []string{"first chunk", "second chunk"}}
	c := &recordingCompleter{reply: "  The answer.\n"}
	chain, err := NewChainBuilder(c).BuildChain(r)
	require.NoError(t, err)

	answer, err := chain.Invoke(context.Background(), "What is said?")
	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer)
	assert.Equal(t, "What is said?", r.query)
	assert.Contains(t, c.prompt, "first chunk\n\nsecond chunk")
}

func TestChain_Errors(t *testing.T) {
	t.Run("retriever", func(t *testing.T) {
		chain, _ := NewChainBuilder(&recordingCompleter{}).BuildChain(&stubRetriever{err: errors.New("embed down")})
		_, err := chain.Invoke(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieve: embed down")
	})

	t.Run("completer", func(t *testing.T) {
		chain, _ := NewChainBuilder(&recordingCompleter{err: errors.New("429")}).BuildChain(&stubRetriever{})
		_, err := chain.Invoke(context.Background(), "q")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "complete: 429")
	})

	t.Run("nil retriever", func(t *testing.T) {
		_, err := NewChainBuilder(&recordingCompleter{}).BuildChain(nil)
		assert.Error(t, err)
	})
}
