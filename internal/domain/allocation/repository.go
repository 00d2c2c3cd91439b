package allocation

import (
	"context"

	"partsledger/internal/core/id"
)

// Repository persists allocations.
type Repository interface {
	// Create inserts a. A second allocation of the same batch to the same job is a conflict.
	Create(ctx context.Context, a *Allocation) error

	// Get returns the allocation of batchID to jobID.
	Get(ctx context.Context, batchID, jobID id.ID) (*Allocation, error)

	// MarkReleased stores the release fields of a.
	MarkReleased(ctx context.Context, a *Allocation) error

	ListByJob(ctx context.Context, jobID id.ID) ([]Allocation, error)
	ListByBatch(ctx context.Context, batchID id.ID) ([]Allocation, error)
}

// JobGuard checks that a job can still receive or return stock.
type JobGuard interface {
	EnsureOpen(ctx context.Context, jobID id.ID) error
}
