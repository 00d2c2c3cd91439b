// Package main is the entry point for the parts ledger background worker.
// It relays the transactional outbox to NATS JetStream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"partsledger/internal/app"
	"partsledger/internal/config"
	"partsledger/internal/infrastructure/messaging"
	"partsledger/internal/infrastructure/metrics"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalw("worker requires the postgres driver", "driver", cfg.Storage.Driver)
	}
	if cfg.NATS.URL == "" {
		log.Fatal("nats.url is required")
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting partsledger worker")

	pool, err := app.OpenPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	broker, err := messaging.Connect(ctx, messaging.Config{
		URL:           cfg.NATS.URL,
		Stream:        cfg.NATS.Stream,
		SubjectPrefix: cfg.NATS.SubjectPrefix,
	})
	if err != nil {
		log.Fatalw("failed to connect to broker", "error", err)
	}
	defer func() { _ = broker.Close() }()

	m := metrics.New()
	m.RegisterPool(pool.Unwrap())

	relay := postgres.NewOutboxRelay(pool.Unwrap(), cfg.Outbox.BatchSize, broker.Relay())
	keys := postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.Idempotency.TTL)

	worker := NewWorker(relay, keys, pool, m, log,
		cfg.Outbox.PollInterval, cfg.Outbox.CleanupInterval, cfg.Outbox.Retention)

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Outbox.MetricsPort),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("worker stopped")
}
