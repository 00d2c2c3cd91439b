package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/allocation"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/jobtab"
)

func TestBatchRepo_InsertUsesEveryColumn(t *testing.T) {
	r := NewBatchRepo(nil)
	b := &batch.Batch{
		ID:                id.New(),
		Number:            "BT-2026-00001",
		ProductID:         id.New(),
		Quantity:          10,
		RemainingQuantity: 10,
		UnitCost:          types.MustMoney("5.00"),
		ReceivedDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ApprovalStatus:    batch.ApprovalPending,
		Status:            batch.StatusActive,
		Version:           1,
	}

	sql, args, err := r.InsertBuilder(b).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO batches")
	assert.Len(t, args, len(r.Columns()))
}

func TestBatchRepo_ForUpdateQuery(t *testing.T) {
	batchID := id.New()
	sql, args, err := NewBatchRepo(nil).forUpdateQuery(batchID).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM batches WHERE id = $1 FOR UPDATE")
	assert.Equal(t, []any{batchID}, args)
}

func TestBatchRepo_UpdateQueryChecksVersion(t *testing.T) {
	b := &batch.Batch{ID: id.New(), Version: 3, Status: batch.StatusConsumed}
	sql, args, err := NewBatchRepo(nil).updateQuery(b).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE batches SET")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $7 AND version = $8")
	assert.Equal(t, b.ID, args[6])
	assert.Equal(t, 3, args[7])
}

func TestAllocationRepo_ReleaseQuery(t *testing.T) {
	by := "storekeeper-1"
	now := time.Now().UTC()
	a := &allocation.Allocation{ID: id.New(), Status: allocation.StatusReleased, ReleasedBy: &by, ReleasedAt: &now}

	sql, args, err := NewAllocationRepo(nil).releaseQuery(a).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE batch_allocations SET status = $1, released_by = $2, released_at = $3 WHERE id = $4", sql)
	assert.Equal(t, allocation.StatusReleased, args[0])
	assert.Equal(t, a.ID, args[3])
}

func TestJobRepo_Queries(t *testing.T) {
	r := NewJobRepo(nil)
	jobID := id.New()

	sql, _, err := r.updateTabQuery(&jobtab.Tab{JobID: jobID, Category: jobtab.CategoryWarehouseBC, Approved: true}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE job_tab_approvals SET approved = $1, approved_by = $2, approved_at = $3 WHERE category = $4 AND job_id = $5", sql)

	invoice := "INV-7"
	sql, args, err := r.closeQuery(&jobtab.Job{ID: jobID, Closed: true, InvoiceNumber: &invoice}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE jobs SET closed = $1, invoice_number = $2, closed_at = $3, closed_by = $4 WHERE id = $5", sql)
	assert.Equal(t, jobID, args[4])

	assert.NotContains(t, r.jobs.Columns(), "tabs")
}
