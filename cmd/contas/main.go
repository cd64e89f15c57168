package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/config"
	"contas/internal/filestore"
	apphttp "contas/internal/http"
	applog "contas/internal/log"
	"contas/internal/services"
	"contas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP})
	applog.SetDefault(logger)

	logger.Info("Starting contas server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP keeps other instances' caches coherent and feeds the reminder
	// worker. The server still runs without it.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPNotifyQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in standalone mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - change events will not be published")
	}

	var blobs filestore.BlobStore
	if cfg.GCSBucket != "" {
		gcs, err := filestore.NewGCSStore(context.Background(), cfg.GCSBucket)
		if err != nil {
			logger.Error("Failed to initialize GCS file store", "error", err, "bucket", cfg.GCSBucket)
			os.Exit(1)
		}
		blobs = gcs
		logger.Info("GCS file store initialized", "bucket", cfg.GCSBucket)
	} else {
		blobs = filestore.NewMemoryStore()
		logger.Info("In-memory file store initialized - attachments will not persist")
	}
	defer blobs.Close()

	var publisher services.ChangePublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	txService := services.NewTransactionService(repo, publisher, blobs)
	importService := services.NewImportService(repo, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, repo, txService, importService)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			if err := amqpClient.ConsumeChanges(ctx, srv.HandleChangeEvent); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
