package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"casal/internal/amqp"
	"casal/internal/cli"
	applog "casal/internal/log"
	"casal/internal/services"
	"casal/internal/sheets"
	gsheet "casal/internal/sheets/google"
	sheetsmem "casal/internal/sheets/memory"
	"casal/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	logger.Info("Starting casal-worker")

	// The worker only reads the ledger; it consumes changes instead of publishing them.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	res, err := cli.OpenBackend(context.Background(), logger.Logger, &storeCfg)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var exporter sheets.MonthExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetsmem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to memory only")
	}

	syncWorker := worker.NewSyncWorker(res.Store, exporter, cfg.ResyncWindow)
	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{Interval: cfg.SyncInterval})

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("AMQP_URL not set, relying on periodic resync only", "interval", cfg.SyncInterval)
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Sync processor stop error", "error", err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumeLedgerChanges(ctx, syncWorker.HandleLedgerChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "resyncs", processor.Stats().Runs, "failures", processor.Stats().Failures)
}
