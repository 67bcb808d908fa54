package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finbot/internal/backend"
	"finbot/internal/bot"
	"finbot/internal/cache"
	"finbot/internal/config"
	"finbot/internal/llm"
	"finbot/internal/log"
	"finbot/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.Setup(os.Stdout, log.ParseLevel(cfg.LogLevel), log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	caches := cache.NewManager()
	defer caches.Stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger, caches).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}
	caches.StartCleanup(5 * time.Minute)

	model, err := llm.NewGemini(ctx, llm.Config{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.GeminiModel,
		MaxRetries:        cfg.LLMMaxRetries,
		RetryStep:         cfg.LLMRetryStep,
		RequestsPerMinute: cfg.LLMRequestsPerMinute,
	})
	if err != nil {
		return err
	}

	transport, err := telegram.New(cfg.TelegramToken, cfg.TelegramPollTimeout)
	if err != nil {
		return err
	}

	b := bot.New(bot.Options{
		Transport:   transport,
		Model:       model,
		Transcriber: model,
		Store:       res.Backend,
		Currency:    cfg.CurrencyLabel,
	})
	runner := bot.NewRunner(b, transport, bot.RunnerConfig{
		IdleBackoff: cfg.IdleBackoff,
		SkipPending: cfg.TelegramSkipPending,
	})

	logger.Info("Starting finbot",
		"backend", cfg.DataBackend,
		"model", cfg.GeminiModel)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
