// Package app wires repositories and domain services for a storage backend.
package app

import (
	"partsledger/internal/core/numerator"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain/allocation"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/jobtab"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/valuation"
	"partsledger/internal/infrastructure/storage/memory"
)

// Backend is the set of storage adapters the domain services run on.
type Backend struct {
	TxManager   tx.ReadOnlyManager
	Products    catalog.Repository
	Batches     batch.Repository
	Allocations allocation.Repository
	Movements   ledger.Repository
	Jobs        jobtab.Repository
	Numerator   numerator.Generator
	Publisher   events.Publisher
	Audit       audit.Recorder
}

// Ledger holds the domain services.
type Ledger struct {
	Movements   *ledger.Service
	Catalog     *catalog.Service
	Batches     *batch.Service
	Allocations *allocation.Service
	Valuation   *valuation.Engine
	Jobs        *jobtab.Service
}

// Wire builds the domain services over b. observer may be nil.
func Wire(b Backend, observer ledger.Observer) *Ledger {
	movements := ledger.NewService(b.Movements, observer)
	products := catalog.NewService(b.Products, movements, b.Publisher, b.TxManager)
	jobs := jobtab.NewService(b.Jobs, b.Publisher, b.Audit, b.TxManager)

	return &Ledger{
		Movements:   movements,
		Catalog:     products,
		Batches:     batch.NewService(b.Batches, products, movements, b.Numerator, b.Publisher, b.Audit, b.TxManager),
		Allocations: allocation.NewService(b.Allocations, b.Batches, jobs, movements, b.Publisher, b.TxManager),
		Valuation:   valuation.NewEngine(products, b.Batches, movements, b.TxManager),
		Jobs:        jobs,
	}
}

// MemoryBackend adapts an in-memory store.
func MemoryBackend(s *memory.Store) Backend {
	return Backend{
		TxManager:   s,
		Products:    memory.NewProductRepo(s),
		Batches:     memory.NewBatchRepo(s),
		Allocations: memory.NewAllocationRepo(s),
		Movements:   memory.NewMovementRepo(s),
		Jobs:        memory.NewJobRepo(s),
		Numerator:   memory.NewNumerator(s),
		Publisher:   s,
		Audit:       s,
	}
}

// NewMemory wires a ledger over a fresh in-memory store.
func NewMemory(observer ledger.Observer) (*Ledger, *memory.Store) {
	s := memory.New()
	return Wire(MemoryBackend(s), observer), s
}
