package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contas/internal/amqp"
	"contas/internal/config"
	applog "contas/internal/log"
	"contas/internal/services"
	"contas/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting reminder-worker")

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

	// The worker only exists to publish notifications, so AMQP is required.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPNotifyQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reminders := services.NewReminderService(repo, amqpClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Reminder sweep configured",
		"interval", cfg.ReminderInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// Run one sweep on startup so restarts never delay a due reminder by a
	// full interval.
	if sent, err := reminders.Sweep(ctx, time.Now()); err != nil {
		logger.Error("Initial sweep failed", "error", err)
	} else {
		logger.Info("Initial sweep complete", "notifications_sent", sent)
	}

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			logger.Info("Reminder-worker stopped gracefully")
			return
		case now := <-ticker.C:
			sent, err := reminders.Sweep(ctx, now)
			if err != nil {
				logger.Error("Periodic sweep failed", "error", err)
				continue
			}
			logger.Info("Periodic sweep complete",
				"notifications_sent", sent,
				"next_check", now.Add(cfg.ReminderInterval).Format("15:04:05"))
		}
	}
}
