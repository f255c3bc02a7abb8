package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"billed/internal/amqp"
	"billed/internal/cache"
	"billed/internal/cli"
	"billed/internal/config"
	applog "billed/internal/log"
	"billed/internal/middleware/trace"
	gsheet "billed/internal/sheets/google"
	"billed/internal/storage"
	"billed/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting billed-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *applog.Logger) error {
	// Read-only use of the store: the worker never logs users in.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.ReceiptsDir(), nil)
	if err != nil {
		return err
	}

	sheets, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		repo.Close()
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		repo.Close()
		return err
	}

	ctx, done := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	})
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	seen := cache.NewLRUCache[time.Time](10_000, cfg.DedupeTTL)
	caches := cache.NewManager()
	caches.Register(seen)

	exportWorker := worker.NewExportWorker(repo, sheets, repo, seen, worker.NewMetrics(reg), cfg.ExportBatchSize)

	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		// Don't exit - messages still get consumed
		logger.Error("Failed startup export check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeBillSubmitted(gctx, exportWorker.HandleBillSubmitted)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		caches.Run(gctx, time.Hour)
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           trace.NewMiddleware(logger.Slog()).Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("Metrics server listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	cli.WaitForShutdown(ctx, done)
	return err
}
