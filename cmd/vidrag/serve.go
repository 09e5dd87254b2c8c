package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpAdapter "github.com/cwygoda/vidrag/internal/adapter/http"
	"github.com/cwygoda/vidrag/internal/config"
	"github.com/cwygoda/vidrag/internal/domain"
	"github.com/cwygoda/vidrag/internal/store"
	"github.com/cwygoda/vidrag/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// A bare "vidrag" serves.
	rootCmd.RunE = serveCmd.RunE
}

func serve(parent context.Context, cfg *config.Config, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting vidrag",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("model", cfg.LLM.Model),
		zap.Strings("languages", cfg.YouTube.Languages))

	cache, closeCache, err := openCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return err
	}

	w := worker.New(cfg.Worker.Count, cfg.Worker.QueueSize, log)
	pipeline := newPipeline(cfg, fetcher, cache, log)
	pipeline.Store = store.NewMemory()
	pipeline.Queue = w
	svc := domain.NewVideoService(pipeline)

	workerDone := make(chan struct{})
	go func() {
		w.Run(ctx, svc)
		close(workerDone)
	}()

	srv := httpAdapter.NewServer(svc, httpAdapter.Options{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		DebugRoutes:  cfg.Server.DebugRoutes,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}, log)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("in-flight builds abandoned", zap.Int("queued", w.Pending()))
	}

	log.Info("shutdown complete")
	return nil
}
