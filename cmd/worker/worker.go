package main

import (
	"context"
	"time"

	"partsledger/pkg/logger"
)

// OutboxRelay is the part of postgres.OutboxRelay the worker drives.
type OutboxRelay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
	PurgePublished(ctx context.Context, olderThan time.Duration) (int64, error)
}

// KeyCleaner removes expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// PoolReporter logs connection pool usage.
type PoolReporter interface {
	LogStats(ctx context.Context)
}

// RelayObserver counts relay outcomes.
type RelayObserver interface {
	OutboxRelayed(n int)
	OutboxFailed()
}

// Worker relays outbox messages to the broker and runs periodic cleanup.
type Worker struct {
	relay           OutboxRelay
	keys            KeyCleaner
	pool            PoolReporter
	observer        RelayObserver
	log             *logger.Logger
	pollInterval    time.Duration
	cleanupInterval time.Duration
	retention       time.Duration
}

// NewWorker creates a worker. keys and pool may be nil.
func NewWorker(relay OutboxRelay, keys KeyCleaner, pool PoolReporter, observer RelayObserver, log *logger.Logger,
	pollInterval, cleanupInterval, retention time.Duration) *Worker {
	return &Worker{
		relay:           relay,
		keys:            keys,
		pool:            pool,
		observer:        observer,
		log:             log.WithComponent("worker"),
		pollInterval:    pollInterval,
		cleanupInterval: cleanupInterval,
		retention:       retention,
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(w.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drain relays batches until one comes back short of work.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.observer.OutboxFailed()
			w.log.Errorw("outbox relay failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
		w.observer.OutboxRelayed(n)
		w.log.Debugw("relayed outbox batch", "count", n)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to dead letter queue failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("outbox messages moved to dead letter queue", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, w.retention); err != nil {
		w.log.Errorw("purge published outbox failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}

	if w.keys != nil {
		if n, err := w.keys.CleanupExpired(ctx); err != nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		} else if n > 0 {
			w.log.Infow("cleaned up idempotency keys", "count", n)
		}
	}

	if w.pool != nil {
		w.pool.LogStats(logger.WithLogger(ctx, w.log))
	}
}
