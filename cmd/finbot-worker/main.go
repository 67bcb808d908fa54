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

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/config"
	"finbot/internal/log"
	gsheet "finbot/internal/sheets/google"
	"finbot/internal/storage"
	"finbot/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.Setup(os.Stdout, log.ParseLevel(cfg.LogLevel), log.ComponentWorker)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	caches := cache.NewManager()
	defer caches.Stop()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		RecordsSheet:    cfg.GoogleRecordsSheet,
		BudgetsSheet:    cfg.GoogleBudgetsSheet,
		CategoriesSheet: cfg.GoogleCategoriesSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CacheTTL:        cfg.SheetsCacheTTL,
	})
	if err != nil {
		return err
	}
	caches.Register(sheetsClient.Cache())
	caches.StartCleanup(5 * time.Minute)
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

	// Startup failures are logged; the periodic sweep retries them.
	if err := syncWorker.SyncCategoriesFromSheets(ctx); err != nil {
		logger.Error("Failed to sync categories", log.FieldError, err)
	}
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	logger.Info("Starting finbot-worker",
		"queue", cfg.AMQPQueue,
		"interval", cfg.SyncInterval.String(),
		"batch_size", cfg.SyncBatchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return amqpClient.ConsumeRecordSync(ctx, syncWorker.HandleSyncMessage) })
	g.Go(func() error { return syncWorker.Run(ctx, cfg.SyncInterval) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
