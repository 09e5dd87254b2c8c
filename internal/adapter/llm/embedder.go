package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cwygoda/vidrag/internal/netutil"
)

// Embedder calls the OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	endpoint  string
	apiKey    string
	model     string
	batchSize int
	http      *http.Client
	retry     netutil.RetryConfig
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbedderHTTPClient sets the underlying HTTP client.
func WithEmbedderHTTPClient(hc *http.Client) EmbedderOption {
	return func(e *Embedder) { e.http = hc }
}

// WithEmbedderRetry overrides the retry policy.
func WithEmbedderRetry(rc netutil.RetryConfig) EmbedderOption {
	return func(e *Embedder) { e.retry = rc }
}

// WithBatchSize caps the number of inputs per request.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewEmbedder creates an Embedder for apiBase (e.g. .../v1beta/openai).
func NewEmbedder(apiBase, apiKey, model string, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		endpoint:  strings.TrimRight(apiBase, "/") + "/embeddings",
		apiKey:    apiKey,
		model:     model,
		batchSize: 100,
		http:      &http.Client{Timeout: 60 * time.Second},
		retry:     netutil.DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: batch})
	if err != nil {
		return nil, err
	}

	resp, err := netutil.RetryHTTP(ctx, e.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
		return e.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(parsed.Data) != len(batch) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(parsed.Data), len(batch))
	}
	sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })

	vecs := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embeddings: empty vector at index %d", d.Index)
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
