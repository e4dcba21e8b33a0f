// Command worker runs the background delivery worker: it drains the
// delivery queue, sends task notifications, purges expired idempotency
// records on a schedule, and serves Prometheus metrics.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/tasktrack/tasktrack-api/internal/config"
	"github.com/tasktrack/tasktrack-api/internal/delivery"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/platform/mailer"
	"github.com/tasktrack/tasktrack-api/internal/platform/metrics"
	"github.com/tasktrack/tasktrack-api/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sender, err := domain.ParseEmail(cfg.Email.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}

	notifier, err := mailer.New(
		cfg.Email.BaseURL,
		sender,
		cfg.Email.SenderName,
		cfg.Email.PublicKey,
		cfg.Email.PrivateKey,
		cfg.Email.SendTimeout,
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	worker := delivery.NewWorker(
		postgres.NewPostgresDeliveryQueueStore(db),
		postgres.NewPostgresTaskStore(db),
		notifier,
		delivery.Config{
			PollInterval:       cfg.Worker.PollInterval,
			ErrorRetryInterval: cfg.Worker.ErrorRetryInterval,
		},
		log,
	)

	janitor := idempotency.NewJanitor(
		postgres.NewPostgresIdempotencyStore(db),
		cfg.Worker.IdempotencyRetention,
		log,
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.PurgeSchedule, func() {
		if err := janitor.RunOnce(ctx); err != nil {
			log.Error("idempotency purge failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", cfg.Worker.PurgeSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	metricsServer := serveMetrics(cfg.Worker.MetricsPort, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown failed", "error", err)
		}
	}()

	err = worker.Run(ctx)
	if err == context.Canceled {
		log.Info("worker shutdown completed")
		return nil
	}
	return err
}

// serveMetrics starts the Prometheus metrics endpoint in the background.
func serveMetrics(port int, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("serving metrics", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return server
}
