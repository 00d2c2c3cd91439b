// Package document_repo provides PostgreSQL repositories for batches, allocations and jobs.
package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/batch"
	"partsledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "batches"

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	postgres.BaseRepo[batch.Batch]
}

var _ batch.Repository = (*BatchRepo)(nil)

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		BaseRepo: postgres.NewBaseRepo[batch.Batch](txManager, batchesTable, "batch"),
	}
}

func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	return r.Insert(ctx, b)
}

func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.GetOne(ctx, r.SelectBuilder().Where(squirrel.Eq{"id": batchID}), batchID)
}

// GetForUpdate locks the batch row until the surrounding transaction ends.
func (r *BatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*batch.Batch, error) {
	return r.GetOne(ctx, r.forUpdateQuery(batchID), batchID)
}

func (r *BatchRepo) forUpdateQuery(batchID id.ID) squirrel.SelectBuilder {
	return r.SelectBuilder().Where(squirrel.Eq{"id": batchID}).Suffix("FOR UPDATE")
}

// updateQuery writes the mutable columns guarded by the version read earlier.
func (r *BatchRepo) updateQuery(b *batch.Batch) squirrel.UpdateBuilder {
	return r.Builder().Update(batchesTable).
		SetMap(map[string]any{
			"remaining_quantity": b.RemainingQuantity,
			"approval_status":    b.ApprovalStatus,
			"approved_by":        b.ApprovedBy,
			"decided_at":         b.DecidedAt,
			"job_allocated_to":   b.JobAllocatedTo,
			"status":             b.Status,
			"version":            squirrel.Expr("version + 1"),
		}).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version})
}

// Update persists b. A stale version is a Conflict.
func (r *BatchRepo) Update(ctx context.Context, b *batch.Batch) error {
	n, err := r.ExecAffected(ctx, r.updateQuery(b), "update batch")
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, b.ID); err != nil {
			return err
		}
		return apperror.NewConflict("batch was modified concurrently").
			WithDetail("id", b.ID).
			WithDetail("version", b.Version)
	}
	b.Version++
	return nil
}

func (r *BatchRepo) ListByProduct(ctx context.Context, productID id.ID) ([]batch.Batch, error) {
	q := r.SelectBuilder().
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at", "id")
	return r.SelectAll(ctx, q)
}
