package memory

import (
	"context"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/allocation"
)

// AllocationRepo implements allocation.Repository.
type AllocationRepo struct {
	s *Store
}

// NewAllocationRepo creates an allocation repository over s.
func NewAllocationRepo(s *Store) *AllocationRepo {
	return &AllocationRepo{s: s}
}

var _ allocation.Repository = (*AllocationRepo)(nil)

func (r *AllocationRepo) Create(ctx context.Context, a *allocation.Allocation) error {
	return r.s.write(ctx, func(undo func(func())) error {
		key := allocKey{batchID: a.BatchID, jobID: a.JobID}
		if _, exists := r.s.allocations[key]; exists {
			return apperror.NewAlreadyAllocated(a.BatchID, a.JobID)
		}
		cp := *a
		r.s.allocations[key] = &cp
		r.s.allocOrder = append(r.s.allocOrder, key)
		n := len(r.s.allocOrder) - 1
		undo(func() {
			delete(r.s.allocations, key)
			r.s.allocOrder = r.s.allocOrder[:n]
		})
		return nil
	})
}

func (r *AllocationRepo) Get(ctx context.Context, batchID, jobID id.ID) (*allocation.Allocation, error) {
	var out *allocation.Allocation
	err := r.s.read(ctx, func() error {
		a, ok := r.s.allocations[allocKey{batchID: batchID, jobID: jobID}]
		if !ok {
			return apperror.NewNotFound("allocation", allocation.SourceRef(batchID, jobID))
		}
		cp := *a
		out = &cp
		return nil
	})
	return out, err
}

func (r *AllocationRepo) MarkReleased(ctx context.Context, a *allocation.Allocation) error {
	return r.s.write(ctx, func(undo func(func())) error {
		key := allocKey{batchID: a.BatchID, jobID: a.JobID}
		stored, ok := r.s.allocations[key]
		if !ok {
			return apperror.NewNotFound("allocation", allocation.SourceRef(a.BatchID, a.JobID))
		}
		prev := *stored
		stored.Status = a.Status
		stored.ReleasedBy = a.ReleasedBy
		stored.ReleasedAt = a.ReleasedAt
		undo(func() { *stored = prev })
		return nil
	})
}

func (r *AllocationRepo) ListByJob(ctx context.Context, jobID id.ID) ([]allocation.Allocation, error) {
	return r.list(ctx, func(k allocKey) bool { return k.jobID == jobID })
}

func (r *AllocationRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]allocation.Allocation, error) {
	return r.list(ctx, func(k allocKey) bool { return k.batchID == batchID })
}

func (r *AllocationRepo) list(ctx context.Context, match func(allocKey) bool) ([]allocation.Allocation, error) {
	var out []allocation.Allocation
	err := r.s.read(ctx, func() error {
		for _, key := range r.s.allocOrder {
			if match(key) {
				out = append(out, *r.s.allocations[key])
			}
		}
		return nil
	})
	return out, err
}
