package document_repo

import (
	"context"
	"slices"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/jobtab"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	jobsTable = "jobs"
	tabsTable = "job_tab_approvals"
)

// JobRepo implements jobtab.Repository. A job row and its tab rows are
// read and written together.
type JobRepo struct {
	jobs postgres.BaseRepo[jobtab.Job]
	tabs postgres.BaseRepo[jobtab.Tab]
}

var _ jobtab.Repository = (*JobRepo)(nil)

// NewJobRepo creates a new job repository.
func NewJobRepo(txManager *postgres.TxManager) *JobRepo {
	return &JobRepo{
		jobs: postgres.NewBaseRepo[jobtab.Job](txManager, jobsTable, "job"),
		tabs: postgres.NewBaseRepo[jobtab.Tab](txManager, tabsTable, "job tab"),
	}
}

func (r *JobRepo) Create(ctx context.Context, job *jobtab.Job) error {
	if err := r.jobs.Insert(ctx, job); err != nil {
		return err
	}
	for i := range job.Tabs {
		if err := r.tabs.Insert(ctx, &job.Tabs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *JobRepo) Get(ctx context.Context, jobID id.ID) (*jobtab.Job, error) {
	return r.load(ctx, r.jobs.SelectBuilder().Where(squirrel.Eq{"id": jobID}), jobID)
}

// GetForUpdate locks the job row; tab updates are serialized behind it.
func (r *JobRepo) GetForUpdate(ctx context.Context, jobID id.ID) (*jobtab.Job, error) {
	q := r.jobs.SelectBuilder().Where(squirrel.Eq{"id": jobID}).Suffix("FOR UPDATE")
	return r.load(ctx, q, jobID)
}

func (r *JobRepo) load(ctx context.Context, q squirrel.SelectBuilder, jobID id.ID) (*jobtab.Job, error) {
	job, err := r.jobs.GetOne(ctx, q, jobID)
	if err != nil {
		return nil, err
	}

	tabs, err := r.tabs.SelectAll(ctx, r.tabs.SelectBuilder().Where(squirrel.Eq{"job_id": jobID}))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tabs, func(a, b jobtab.Tab) int {
		return slices.Index(jobtab.Categories, a.Category) - slices.Index(jobtab.Categories, b.Category)
	})
	job.Tabs = tabs
	return job, nil
}

func (r *JobRepo) updateTabQuery(tab *jobtab.Tab) squirrel.UpdateBuilder {
	return r.tabs.Builder().Update(tabsTable).
		Set("approved", tab.Approved).
		Set("approved_by", tab.ApprovedBy).
		Set("approved_at", tab.ApprovedAt).
		Where(squirrel.Eq{"job_id": tab.JobID, "category": tab.Category})
}

func (r *JobRepo) UpdateTab(ctx context.Context, tab *jobtab.Tab) error {
	n, err := r.tabs.ExecAffected(ctx, r.updateTabQuery(tab), "update job tab")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("job tab", string(tab.Category))
	}
	return nil
}

func (r *JobRepo) closeQuery(job *jobtab.Job) squirrel.UpdateBuilder {
	return r.jobs.Builder().Update(jobsTable).
		Set("closed", job.Closed).
		Set("invoice_number", job.InvoiceNumber).
		Set("closed_at", job.ClosedAt).
		Set("closed_by", job.ClosedBy).
		Where(squirrel.Eq{"id": job.ID})
}

func (r *JobRepo) Close(ctx context.Context, job *jobtab.Job) error {
	n, err := r.jobs.ExecAffected(ctx, r.closeQuery(job), "close job")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("job", job.ID)
	}
	return nil
}
