package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/domain/allocation"
	"partsledger/internal/infrastructure/storage/postgres"
)

const allocationsTable = "batch_allocations"

// AllocationRepo implements allocation.Repository.
type AllocationRepo struct {
	postgres.BaseRepo[allocation.Allocation]
}

var _ allocation.Repository = (*AllocationRepo)(nil)

// NewAllocationRepo creates a new allocation repository.
func NewAllocationRepo(txManager *postgres.TxManager) *AllocationRepo {
	return &AllocationRepo{
		BaseRepo: postgres.NewBaseRepo[allocation.Allocation](txManager, allocationsTable, "allocation"),
	}
}

func (r *AllocationRepo) Create(ctx context.Context, a *allocation.Allocation) error {
	return r.Insert(ctx, a)
}

func (r *AllocationRepo) Get(ctx context.Context, batchID, jobID id.ID) (*allocation.Allocation, error) {
	q := r.SelectBuilder().Where(squirrel.Eq{"batch_id": batchID, "job_id": jobID})
	return r.GetOne(ctx, q, allocation.SourceRef(batchID, jobID))
}

func (r *AllocationRepo) releaseQuery(a *allocation.Allocation) squirrel.UpdateBuilder {
	return r.Builder().Update(allocationsTable).
		Set("status", a.Status).
		Set("released_by", a.ReleasedBy).
		Set("released_at", a.ReleasedAt).
		Where(squirrel.Eq{"id": a.ID})
}

func (r *AllocationRepo) MarkReleased(ctx context.Context, a *allocation.Allocation) error {
	n, err := r.ExecAffected(ctx, r.releaseQuery(a), "release allocation")
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = r.Get(ctx, a.BatchID, a.JobID)
		return err
	}
	return nil
}

func (r *AllocationRepo) ListByJob(ctx context.Context, jobID id.ID) ([]allocation.Allocation, error) {
	return r.SelectAll(ctx, r.SelectBuilder().
		Where(squirrel.Eq{"job_id": jobID}).
		OrderBy("allocated_at", "id"))
}

func (r *AllocationRepo) ListByBatch(ctx context.Context, batchID id.ID) ([]allocation.Allocation, error) {
	return r.SelectAll(ctx, r.SelectBuilder().
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("allocated_at", "id"))
}
