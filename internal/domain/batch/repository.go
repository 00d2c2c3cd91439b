package batch

import (
	"context"

	"partsledger/internal/core/id"
)

// Repository persists batches.
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, batchID id.ID) (*Batch, error)

	// GetForUpdate loads the batch and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, batchID id.ID) (*Batch, error)

	// Update writes b when the stored version equals b.Version and increments it.
	// A stale version is a conflict.
	Update(ctx context.Context, b *Batch) error

	// ListByProduct returns the product's batches in insertion order.
	ListByProduct(ctx context.Context, productID id.ID) ([]Batch, error)
}
