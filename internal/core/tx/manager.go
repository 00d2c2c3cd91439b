// Package tx provides transaction management abstractions.
// Domain services depend on Manager; the Postgres and in-memory stores provide it.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Every ledger transition (decide, allocate, release, approve tab, close job)
// is a read-then-write that must execute inside a single RunInTransaction call.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// The valuation engine reads through it so that one aggregate sees one snapshot.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
