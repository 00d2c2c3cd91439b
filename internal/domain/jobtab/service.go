package jobtab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/events"
	"partsledger/pkg/logger"
)

// Service manages job tabs and closure.
type Service struct {
	repo      Repository
	publisher events.Publisher
	audit     audit.Recorder
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new job tab service.
func NewService(repo Repository, publisher events.Publisher, recorder audit.Recorder, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		audit:     recorder,
		txManager: txManager,
		now:       time.Now,
	}
}

// Open registers a job with all tabs unapproved. Opening a job that already
// exists returns it unchanged.
func (s *Service) Open(ctx context.Context, jobID id.ID, reference string) (*Job, error) {
	if id.IsNil(jobID) {
		return nil, apperror.NewValidation("job id is required")
	}

	var result *Job
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, jobID)
		if err == nil {
			result = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		job := &Job{
			ID:        jobID,
			Reference: strings.TrimSpace(reference),
			CreatedAt: s.now().UTC(),
		}
		for _, c := range Categories {
			job.Tabs = append(job.Tabs, Tab{JobID: jobID, Category: c})
		}
		if err := s.repo.Create(ctx, job); err != nil {
			return err
		}
		result = job
		return s.publisher.Publish(ctx, events.New(events.JobOpened, events.AggregateJob, job.ID, map[string]any{
			"reference": job.Reference,
		}))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the job with its tabs.
func (s *Service) Get(ctx context.Context, jobID id.ID) (*Job, error) {
	return s.repo.Get(ctx, jobID)
}

// EnsureOpen fails with NotFound for an unknown job and JobClosed for a closed one.
// Callers inside a transaction get the job row locked until commit.
func (s *Service) EnsureOpen(ctx context.Context, jobID id.ID) error {
	job, err := s.repo.GetForUpdate(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Closed {
		return apperror.NewJobClosed(jobID)
	}
	return nil
}

// Approve marks one tab approved. An approved tab is never re-stamped.
func (s *Service) Approve(ctx context.Context, jobID id.ID, category Category, approverID string) (*Tab, error) {
	if _, ok := ParseCategory(string(category)); !ok {
		return nil, apperror.NewValidation("unknown tab category").WithDetail("category", category)
	}
	if approverID == "" {
		return nil, apperror.NewValidation("approver is required")
	}

	var result *Tab
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		job, err := s.repo.GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Closed {
			return apperror.NewJobClosed(jobID)
		}
		tab := job.Tab(category)
		if tab == nil {
			return fmt.Errorf("job %s has no %s tab", jobID, category)
		}
		if tab.Approved {
			return apperror.NewAlreadyApproved(jobID, string(category))
		}

		at := s.now().UTC()
		tab.Approved = true
		tab.ApprovedBy = &approverID
		tab.ApprovedAt = &at
		if err := s.repo.UpdateTab(ctx, tab); err != nil {
			return err
		}
		result = tab
		return s.publisher.Publish(ctx, events.New(events.JobTabApproved, events.AggregateJob, jobID, map[string]any{
			"category":    string(category),
			"approved_by": approverID,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "job tab approved", "job_id", jobID, "category", category, "approver", approverID)
	return result, nil
}

// CanClose reports whether every tab of the job is approved.
func (s *Service) CanClose(ctx context.Context, jobID id.ID) (bool, error) {
	job, err := s.repo.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.AllApproved(), nil
}

// Close records the invoice and closes the job. Closed jobs accept no further
// tab approvals, allocations or releases.
func (s *Service) Close(ctx context.Context, jobID id.ID, invoiceNumber, actor string) (*Job, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, apperror.NewValidation("invoice number is required")
	}

	var result *Job
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		job, err := s.repo.GetForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Closed {
			return apperror.NewJobClosed(jobID)
		}
		if pending := job.PendingCategories(); len(pending) > 0 {
			return apperror.NewNotFullyApproved(jobID, pending)
		}

		at := s.now().UTC()
		job.Closed = true
		job.InvoiceNumber = &invoiceNumber
		job.ClosedAt = &at
		if actor != "" {
			job.ClosedBy = &actor
		}
		if err := s.repo.Close(ctx, job); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: events.AggregateJob,
			EntityID:   job.ID,
			Action:     audit.ActionClose,
			UserID:     actor,
			Changes:    map[string]any{"invoice_number": invoiceNumber},
			At:         at,
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}
		result = job
		return s.publisher.Publish(ctx, events.New(events.JobClosed, events.AggregateJob, job.ID, map[string]any{
			"invoice_number": invoiceNumber,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "job closed", "job_id", jobID, "invoice_number", invoiceNumber)
	return result, nil
}
