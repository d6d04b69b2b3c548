package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bekzodm/dilbot/internal/config"
	"github.com/bekzodm/dilbot/internal/dispatch"
	"github.com/bekzodm/dilbot/internal/providers"
	"github.com/bekzodm/dilbot/internal/store"
	"github.com/bekzodm/dilbot/internal/telemetry"
	"github.com/bekzodm/dilbot/internal/transport/telegram"
)

func runServe() {
	setupLogging()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	watcher := config.NewWatcher(cfgPath, cfg)

	blocks, err := store.Open(store.Options{
		Driver:      cfg.Database.Driver,
		PostgresDSN: cfg.Database.PostgresDSN,
		SQLitePath:  cfg.Database.SQLitePath,
	})
	if err != nil {
		slog.Error("block store open failed", "error", err)
		os.Exit(1)
	}
	defer blocks.Close()

	provider := providers.NewOllamaProvider(cfg.Models.OllamaHost)
	retryCfg := providers.RetryConfig{
		MaxAttempts: cfg.Models.MaxAttempts,
		BaseDelay:   cfg.Models.BaseDelay(),
	}
	client := providers.NewRetryingClient(provider, retryCfg)

	registry := dispatch.NewRegistry()
	pipeline := &dispatch.Pipeline{
		Text:     client,
		Vision:   client,
		Registry: registry,
		Conf:     watcher.Snapshot,
		Log:      slog.Default(),
	}
	sessions := dispatch.NewImageSessions(ctx, pipeline, registry, slog.Default())
	router := dispatch.NewRouter(ctx, pipeline, sessions, registry, blocks, slog.Default())

	channel, err := telegram.New(cfg.Telegram, router, slog.Default())
	if err != nil {
		slog.Error("telegram channel setup failed", "error", err)
		os.Exit(1)
	}
	pipeline.Transport = channel

	if err := channel.Start(ctx); err != nil {
		slog.Error("telegram start failed", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Watch(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	slog.Info("dilbot running", "version", Version,
		"text_model", cfg.Models.TextModel, "vision_model", cfg.Models.VisionModel)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
	}

	// Drain: stop polling first so no new events arrive, then flush
	// traces.
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := channel.Stop(stopCtx); err != nil {
		slog.Warn("telegram stop failed", "error", err)
	}
	if err := shutdownTracing(stopCtx); err != nil {
		slog.Warn("trace flush failed", "error", err)
	}
	slog.Info("dilbot stopped")
}
