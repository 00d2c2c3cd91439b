package memory

import (
	"context"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/batch"
)

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	s *Store
}

// NewBatchRepo creates a batch repository over s.
func NewBatchRepo(s *Store) *BatchRepo {
	return &BatchRepo{s: s}
}

var _ batch.Repository = (*BatchRepo)(nil)

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.s.write(ctx, func(undo func(func())) error {
		if _, exists := r.s.batches[b.ID]; exists {
			return apperror.NewConflict("batch already exists").WithDetail("id", b.ID)
		}
		cp := *b
		r.s.batches[b.ID] = &cp
		r.s.batchOrder = append(r.s.batchOrder, b.ID)
		n := len(r.s.batchOrder) - 1
		undo(func() {
			delete(r.s.batches, b.ID)
			r.s.batchOrder = r.s.batchOrder[:n]
		})
		return nil
	})
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	var out *batch.Batch
	err := r.s.read(ctx, func() error {
		b, ok := r.s.batches[batchID]
		if !ok {
			return apperror.NewNotFound("batch", batchID)
		}
		cp := *b
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the transaction already holds the store lock.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.GetByID(ctx, batchID)
}

func (r *BatchRepo) Update(ctx context.Context, b *batch.Batch) error {
	return r.s.write(ctx, func(undo func(func())) error {
		stored, ok := r.s.batches[b.ID]
		if !ok {
			return apperror.NewNotFound("batch", b.ID)
		}
		if stored.Version != b.Version {
			return apperror.NewConflict("batch was modified concurrently").
				WithDetail("id", b.ID).
				WithDetail("version", b.Version)
		}
		prev := *stored
		b.Version++
		cp := *b
		r.s.batches[b.ID] = &cp
		undo(func() { r.s.batches[b.ID] = &prev })
		return nil
	})
}

func (r *BatchRepo) ListByProduct(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	var out []batch.Batch
	err := r.s.read(ctx, func() error {
		for _, batchID := range r.s.batchOrder {
			if b := r.s.batches[batchID]; b.ProductID == productID {
				out = append(out, *b)
			}
		}
		return nil
	})
	return out, err
}
