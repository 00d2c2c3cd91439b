package app

import (
	"context"
	"fmt"

	"partsledger/internal/config"
	"partsledger/internal/core/idempotency"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/memory"
	"partsledger/internal/infrastructure/storage/postgres"
)

// Runtime is a ledger opened on the configured storage driver.
type Runtime struct {
	Ledger      *Ledger
	Driver      string
	Pool        *postgres.Pool // nil for the memory driver
	Idempotency idempotency.Store
}

// Open connects the configured driver and wires the ledger over it.
func Open(ctx context.Context, cfg *config.Config, observer ledger.Observer) (*Runtime, error) {
	rt := &Runtime{Driver: cfg.Storage.Driver}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		l, _ := NewMemory(observer)
		rt.Ledger = l
		if cfg.Idempotency.Enabled {
			rt.Idempotency = memory.NewIdempotencyStore(cfg.Idempotency.TTL)
		}

	case config.DriverPostgres:
		pool, err := OpenPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		backend, err := PostgresBackend(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		rt.Pool = pool
		rt.Ledger = Wire(backend, observer)
		if cfg.Idempotency.Enabled {
			rt.Idempotency = postgres.NewIdempotencyStore(postgres.NewTxManager(pool), cfg.Idempotency.TTL)
		}

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return rt, nil
}

// OpenPool connects to PostgreSQL with the configured pool limits.
func OpenPool(ctx context.Context, db config.DatabaseConfig) (*postgres.Pool, error) {
	poolCfg := postgres.PoolConfig{
		DSN:             db.URL,
		MaxConns:        db.MaxConns,
		MinConns:        db.MinConns,
		MaxConnLifetime: db.MaxConnLifetime,
		MaxConnIdleTime: db.MaxConnIdleTime,
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}

// Close releases the database pool, if any.
func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}
