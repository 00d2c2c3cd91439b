// Package memory provides an in-process implementation of every ledger
// repository. It backs the memory storage driver and the domain tests.
//
// Transactions are serialized: RunInTransaction holds the store's write lock for
// the whole unit of work and rolls back through an undo log on error.
package memory

import (
	"context"
	"errors"
	"sync"

	"partsledger/internal/core/id"
	coretx "partsledger/internal/core/tx"
	"partsledger/internal/domain/allocation"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/jobtab"
	"partsledger/internal/domain/ledger"
)

var errReadOnly = errors.New("memory store: write in read-only transaction")

type allocKey struct {
	batchID id.ID
	jobID   id.ID
}

type movementKey struct {
	productID id.ID
	sourceRef string
	eventType ledger.EventType
}

// Store holds all ledger state.
type Store struct {
	mu sync.RWMutex

	products     map[id.ID]*catalog.Product
	productCodes map[string]id.ID

	batches    map[id.ID]*batch.Batch
	batchOrder []id.ID

	allocations map[allocKey]*allocation.Allocation
	allocOrder  []allocKey

	movements    []ledger.MovementRecord
	movementKeys map[movementKey]int

	jobs map[id.ID]*jobtab.Job

	sequences map[string]int64
	events    []events.Event
	audit     []audit.Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		products:     make(map[id.ID]*catalog.Product),
		productCodes: make(map[string]id.ID),
		batches:      make(map[id.ID]*batch.Batch),
		allocations:  make(map[allocKey]*allocation.Allocation),
		movementKeys: make(map[movementKey]int),
		jobs:         make(map[id.ID]*jobtab.Job),
		sequences:    make(map[string]int64),
	}
}

var _ coretx.ReadOnlyManager = (*Store)(nil)

type txKey struct{}

type txState struct {
	store    *Store
	readOnly bool
	undo     []func()
}

func (s *Store) current(ctx context.Context) *txState {
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.store == s {
		return st
	}
	return nil
}

// RunInTransaction executes fn atomically. Nested calls reuse the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if st := s.current(ctx); st != nil {
		if st.readOnly {
			return errReadOnly
		}
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		return err
	}
	return nil
}

// ReadOnly executes fn against a consistent snapshot.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.current(ctx) != nil {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(context.WithValue(ctx, txKey{}, &txState{store: s, readOnly: true}))
}

// read runs fn under the read lock unless ctx already holds a transaction.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if s.current(ctx) != nil {
		return fn()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// write runs fn under the write lock unless ctx already holds a transaction.
// fn registers compensations through the undo callback; outside a transaction
// they are discarded.
func (s *Store) write(ctx context.Context, fn func(undo func(func())) error) error {
	if st := s.current(ctx); st != nil {
		if st.readOnly {
			return errReadOnly
		}
		return fn(func(u func()) { st.undo = append(st.undo, u) })
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(func(func()) {})
}

// Events returns a copy of every published event.
func (s *Store) Events() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event(nil), s.events...)
}

// AuditEntries returns a copy of every recorded audit entry.
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry(nil), s.audit...)
}

// Publish implements events.Publisher. The event is discarded if the
// surrounding transaction rolls back.
func (s *Store) Publish(ctx context.Context, e events.Event) error {
	return s.write(ctx, func(undo func(func())) error {
		s.events = append(s.events, e)
		n := len(s.events) - 1
		undo(func() { s.events = s.events[:n] })
		return nil
	})
}

// Record implements audit.Recorder.
func (s *Store) Record(ctx context.Context, e audit.Entry) error {
	return s.write(ctx, func(undo func(func())) error {
		s.audit = append(s.audit, e)
		n := len(s.audit) - 1
		undo(func() { s.audit = s.audit[:n] })
		return nil
	})
}
