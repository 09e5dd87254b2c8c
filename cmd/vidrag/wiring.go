package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	llmadapter "github.com/cwygoda/vidrag/internal/adapter/llm"
	redisadapter "github.com/cwygoda/vidrag/internal/adapter/redis"
	"github.com/cwygoda/vidrag/internal/adapter/sqlite"
	"github.com/cwygoda/vidrag/internal/adapter/youtube"
	"github.com/cwygoda/vidrag/internal/config"
	"github.com/cwygoda/vidrag/internal/domain"
	"github.com/cwygoda/vidrag/internal/netutil"
	"github.com/cwygoda/vidrag/internal/rag"
)

// newFetcher registers the built-in strategies and, when configured, the
// external command fallback.
func newFetcher(cfg *config.Config, log *zap.Logger) (*youtube.Fetcher, error) {
	retry := netutil.DefaultRetryConfig
	retry.Logger = log
	client := youtube.NewClient(
		youtube.WithHTTPClient(&http.Client{Timeout: cfg.YouTube.RequestTimeout}),
		youtube.WithRateLimit(cfg.YouTube.RequestsPerSecond, int(cfg.YouTube.RequestsPerSecond)+1),
		youtube.WithRetry(retry),
		youtube.WithLanguages(cfg.YouTube.Languages...),
	)
	fetcher := youtube.NewDefaultFetcher(client, log)

	if cc := cfg.YouTube.Command; cc != nil {
		cmd, err := youtube.NewCommandStrategy(*cc, cfg.YouTube.Languages, log)
		if err != nil {
			return nil, err
		}
		fetcher.Register(cmd)
	}
	return fetcher, nil
}

// newTranslator builds the Hindi-to-English translator on the chat client.
func newTranslator(cfg *config.Config, log *zap.Logger) *llmadapter.Translator {
	client := llmadapter.NewClient(cfg.LLM)
	return llmadapter.NewTranslator(
		llmadapter.NewCompleter(client, cfg.LLM.TranslateTemperature, cfg.LLM.MaxTokens), log)
}

// openCache returns the configured transcript cache. The returned cache is a
// nil interface when caching is disabled.
func openCache(ctx context.Context, cfg config.CacheConfig, log *zap.Logger) (domain.TranscriptCache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "sqlite":
		c, err := sqlite.New(cfg.Path, cfg.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("open transcript cache: %w", err)
		}
		if purged, err := c.PurgeExpired(ctx); err != nil {
			log.Warn("transcript cache purge failed", zap.Error(err))
		} else if purged > 0 {
			log.Info("purged expired transcripts", zap.Int64("count", purged))
		}
		log.Info("transcript cache ready", zap.String("backend", "sqlite"), zap.String("path", cfg.Path))
		return c, c.Close, nil
	case "redis":
		c, err := redisadapter.New(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("open transcript cache: %w", err)
		}
		log.Info("transcript cache ready", zap.String("backend", "redis"))
		return c, c.Close, nil
	default:
		log.Info("transcript cache disabled")
		return nil, noop, nil
	}
}

// newPipeline wires every collaborator of the video service except the queue.
func newPipeline(cfg *config.Config, fetcher domain.TranscriptFetcher, cache domain.TranscriptCache, log *zap.Logger) domain.Pipeline {
	chat := llmadapter.NewClient(cfg.LLM)
	embedder := llmadapter.NewEmbedder(cfg.LLM.APIBase, cfg.LLM.APIKey, cfg.LLM.EmbeddingModel,
		llmadapter.WithBatchSize(cfg.Index.BatchSize),
		llmadapter.WithEmbedderHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
	)
	indexer := rag.NewIndexBuilder(embedder, rag.IndexOptions{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		K:            cfg.Index.K,
		FetchK:       cfg.Index.FetchK,
		Lambda:       cfg.Index.Lambda,
	}, log)

	return domain.Pipeline{
		Fetcher:    fetcher,
		Translator: newTranslator(cfg, log),
		Indexer:    indexer,
		Chains:     rag.NewChainBuilder(llmadapter.NewCompleter(chat, cfg.LLM.AnswerTemperature, cfg.LLM.MaxTokens)),
		Cache:      cache,
		Logger:     log,
	}
}
