package jobtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/app/apptest"
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/jobtab"
)

func approveAll(t *testing.T, f *apptest.Fixture, jobID id.ID) {
	t.Helper()
	for _, c := range jobtab.Categories {
		_, err := f.Jobs.Approve(f.Ctx, jobID, c, apptest.Approver)
		require.NoError(t, err)
	}
}

func TestOpen(t *testing.T) {
	f := apptest.New(t)
	jobID := id.New()

	job, err := f.Jobs.Open(f.Ctx, jobID, " WO-7 ")
	require.NoError(t, err)
	assert.Equal(t, "WO-7", job.Reference)
	assert.False(t, job.Closed)
	require.Len(t, job.Tabs, 3)
	for _, tab := range job.Tabs {
		assert.False(t, tab.Approved)
	}

	again, err := f.Jobs.Open(f.Ctx, jobID, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "WO-7", again.Reference)
}

func TestApprove(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)

	tab, err := f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, apptest.Approver)
	require.NoError(t, err)
	assert.True(t, tab.Approved)
	require.NotNil(t, tab.ApprovedAt)
	stamped := *tab.ApprovedAt

	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, "inspector-2")
	assert.True(t, apperror.Is(err, apperror.CodeAlreadyApproved))

	got, err := f.Jobs.Get(f.Ctx, job.ID)
	require.NoError(t, err)
	stored := got.Tab(jobtab.CategoryWarehouseA)
	assert.Equal(t, stamped, *stored.ApprovedAt)
	assert.Equal(t, apptest.Approver, *stored.ApprovedBy)
}

func TestApprove_Errors(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)

	_, err := f.Jobs.Approve(f.Ctx, id.New(), jobtab.CategoryWarehouseA, apptest.Approver)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.Jobs.Approve(f.Ctx, job.ID, "warehouse_z", apptest.Approver)
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, "")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestCanClose(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)

	ok, err := f.Jobs.CanClose(f.Ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, apptest.Approver)
	require.NoError(t, err)
	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseBC, apptest.Approver)
	require.NoError(t, err)

	ok, err = f.Jobs.CanClose(f.Ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryOwnerSupplied, apptest.Approver)
	require.NoError(t, err)

	ok, err = f.Jobs.CanClose(f.Ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.Jobs.CanClose(f.Ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestClose_Gate(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)

	_, err := f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, apptest.Approver)
	require.NoError(t, err)

	_, err = f.Jobs.Close(f.Ctx, job.ID, "INV-1", "clerk-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFullyApproved, appErr.Code)
	assert.Equal(t, []string{"warehouse_bc", "owner_supplied"}, appErr.Details["pending"])

	got, err := f.Jobs.Get(f.Ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, got.Closed)
	assert.Nil(t, got.InvoiceNumber)
}

func TestClose(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)
	approveAll(t, f, job.ID)

	_, err := f.Jobs.Close(f.Ctx, job.ID, "  ", "clerk-1")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	closed, err := f.Jobs.Close(f.Ctx, job.ID, "INV-2026-17", "clerk-1")
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Equal(t, "INV-2026-17", *closed.InvoiceNumber)
	require.NotNil(t, closed.ClosedAt)

	_, err = f.Jobs.Close(f.Ctx, job.ID, "INV-2026-18", "clerk-1")
	assert.True(t, apperror.Is(err, apperror.CodeJobClosed))

	err = f.Jobs.EnsureOpen(f.Ctx, job.ID)
	assert.True(t, apperror.Is(err, apperror.CodeJobClosed))

	var closes int
	for _, e := range f.Store.AuditEntries() {
		if e.Action == audit.ActionClose {
			closes++
		}
	}
	assert.Equal(t, 1, closes)
}

func TestClose_UnknownJob(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Jobs.Close(f.Ctx, id.New(), "INV-1", "clerk-1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestApprove_ClosedJob(t *testing.T) {
	f := apptest.New(t)
	job := f.Job(t)
	approveAll(t, f, job.ID)
	_, err := f.Jobs.Close(f.Ctx, job.ID, "INV-1", "clerk-1")
	require.NoError(t, err)

	_, err = f.Jobs.Approve(f.Ctx, job.ID, jobtab.CategoryWarehouseA, apptest.Approver)
	assert.True(t, apperror.Is(err, apperror.CodeJobClosed))
}

func TestParseCategory(t *testing.T) {
	c, ok := jobtab.ParseCategory("owner_supplied")
	assert.True(t, ok)
	assert.Equal(t, jobtab.CategoryOwnerSupplied, c)

	_, ok = jobtab.ParseCategory("Warehouse_A")
	assert.False(t, ok)
}
