package memory

import (
	"context"
	"slices"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/jobtab"
)

// JobRepo implements jobtab.Repository.
type JobRepo struct {
	s *Store
}

// NewJobRepo creates a job repository over s.
func NewJobRepo(s *Store) *JobRepo {
	return &JobRepo{s: s}
}

var _ jobtab.Repository = (*JobRepo)(nil)

func cloneJob(j *jobtab.Job) *jobtab.Job {
	cp := *j
	cp.Tabs = slices.Clone(j.Tabs)
	return &cp
}

func (r *JobRepo) Create(ctx context.Context, job *jobtab.Job) error {
	return r.s.write(ctx, func(undo func(func())) error {
		if _, exists := r.s.jobs[job.ID]; exists {
			return apperror.NewConflict("job already exists").WithDetail("id", job.ID)
		}
		r.s.jobs[job.ID] = cloneJob(job)
		undo(func() { delete(r.s.jobs, job.ID) })
		return nil
	})
}

func (r *JobRepo) Get(ctx context.Context, jobID id.ID) (*jobtab.Job, error) {
	var out *jobtab.Job
	err := r.s.read(ctx, func() error {
		j, ok := r.s.jobs[jobID]
		if !ok {
			return apperror.NewNotFound("job", jobID)
		}
		out = cloneJob(j)
		return nil
	})
	return out, err
}

// GetForUpdate is Get; the transaction already holds the store lock.
func (r *JobRepo) GetForUpdate(ctx context.Context, jobID id.ID) (*jobtab.Job, error) {
	return r.Get(ctx, jobID)
}

func (r *JobRepo) UpdateTab(ctx context.Context, tab *jobtab.Tab) error {
	return r.s.write(ctx, func(undo func(func())) error {
		j, ok := r.s.jobs[tab.JobID]
		if !ok {
			return apperror.NewNotFound("job", tab.JobID)
		}
		stored := j.Tab(tab.Category)
		if stored == nil {
			return apperror.NewNotFound("job tab", string(tab.Category))
		}
		prev := *stored
		*stored = *tab
		undo(func() { *stored = prev })
		return nil
	})
}

func (r *JobRepo) Close(ctx context.Context, job *jobtab.Job) error {
	return r.s.write(ctx, func(undo func(func())) error {
		j, ok := r.s.jobs[job.ID]
		if !ok {
			return apperror.NewNotFound("job", job.ID)
		}
		prev := *j
		j.Closed = job.Closed
		j.InvoiceNumber = job.InvoiceNumber
		j.ClosedAt = job.ClosedAt
		j.ClosedBy = job.ClosedBy
		undo(func() { *j = prev })
		return nil
	})
}
