package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/domain"
)

// ErrEmptyTranscript is returned when there is nothing to index.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Embedder turns texts into vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is an in-memory set of chunks with unit-length embeddings.
type Index struct {
	chunks  []string
	vectors [][]float32
}

// NewIndex normalises vectors and pairs them with chunks.
func NewIndex(chunks []string, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("index: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	ix := &Index{chunks: chunks, vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("index: vector %d has dimension %d, want %d", i, len(v), len(vectors[0]))
		}
		ix.vectors[i] = normalize(v)
	}
	return ix, nil
}

// Len returns the number of chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

type scored struct {
	idx int
	sim float64
}

// MMR selects up to k chunks by maximal marginal relevance among the fetchK
// chunks most similar to query. lambda 1 is pure relevance, 0 pure diversity.
func (ix *Index) MMR(query []float32, k, fetchK int, lambda float64) []string {
	q := normalize(query)
	candidates := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		candidates[i] = scored{idx: i, sim: dot(q, v)}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })
	if len(candidates) > fetchK {
		candidates = candidates[:fetchK]
	}

	var selected []int
	for len(selected) < k && len(candidates) > 0 {
		best, bestScore := 0, math.Inf(-1)
		for ci, c := range candidates {
			redundancy := 0.0
			for _, s := range selected {
				redundancy = max(redundancy, dot(ix.vectors[c.idx], ix.vectors[s]))
			}
			score := lambda*c.sim - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = ci, score
			}
		}
		selected = append(selected, candidates[best].idx)
		candidates = append(candidates[:best], candidates[best+1:]...)
	}

	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = ix.chunks[idx]
	}
	return out
}

// Retriever answers queries against an Index with MMR.
type Retriever struct {
	index    *Index
	embedder Embedder
	k        int
	fetchK   int
	lambda   float64
}

// Retrieve embeds query and returns the selected chunks.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return r.index.MMR(vecs[0], r.k, r.fetchK, r.lambda), nil
}

// IndexOptions tunes chunking and retrieval.
type IndexOptions struct {
	ChunkSize    int
	ChunkOverlap int
	K            int
	FetchK       int
	Lambda       float64
}

// DefaultIndexOptions returns 800/100 chunking with k=6, fetch_k=12, lambda=0.5.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{ChunkSize: 800, ChunkOverlap: 100, K: 6, FetchK: 12, Lambda: 0.5}
}

// IndexBuilder splits, embeds and indexes transcripts.
type IndexBuilder struct {
	embedder Embedder
	splitter *Splitter
	opts     IndexOptions
	log      *zap.Logger
}

// NewIndexBuilder creates an IndexBuilder.
func NewIndexBuilder(embedder Embedder, opts IndexOptions, log *zap.Logger) *IndexBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &IndexBuilder{
		embedder: embedder,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		opts:     opts,
		log:      log,
	}
}

// BuildRetriever indexes text and returns an MMR retriever over it.
func (b *IndexBuilder) BuildRetriever(ctx context.Context, text string) (domain.Retriever, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTranscript
	}
	chunks := b.splitter.Split(text)
	vectors, err := b.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	index, err := NewIndex(chunks, vectors)
	if err != nil {
		return nil, err
	}
	b.log.Debug("index built", zap.Int("chunks", index.Len()))
	return &Retriever{
		index:    index,
		embedder: b.embedder,
		k:        b.opts.K,
		fetchK:   b.opts.FetchK,
		lambda:   b.opts.Lambda,
	}, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range min(len(a), len(b)) {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
