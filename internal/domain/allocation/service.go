package allocation

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/ledger"
	"partsledger/pkg/logger"
)

// Service allocates batch stock to jobs and releases it.
type Service struct {
	repo      Repository
	batches   batch.Repository
	jobs      JobGuard
	ledger    *ledger.Service
	publisher events.Publisher
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new allocation service.
func NewService(
	repo Repository,
	batches batch.Repository,
	jobs JobGuard,
	ledgerSvc *ledger.Service,
	publisher events.Publisher,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		batches:   batches,
		jobs:      jobs,
		ledger:    ledgerSvc,
		publisher: publisher,
		txManager: txManager,
		now:       time.Now,
	}
}

// Allocate issues qty units of an approved, active batch to an open job.
//
// The batch row is locked for the duration, so two concurrent allocations of the
// same batch cannot both pass the remaining-quantity check. Retrying an identical
// allocation returns the existing one.
func (s *Service) Allocate(ctx context.Context, batchID, jobID id.ID, qty int64, actor string) (*Allocation, error) {
	var (
		result  *Allocation
		created bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.jobs.EnsureOpen(ctx, jobID); err != nil {
			return err
		}

		b, err := s.batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		existing, err := s.repo.Get(ctx, batchID, jobID)
		switch {
		case err == nil:
			if existing.Status == StatusReleased {
				return apperror.NewInvalidState("allocation", existing.ID, string(StatusReleased)).
					WithDetail("batch_id", batchID).
					WithDetail("job_id", jobID)
			}
			if existing.Quantity == qty {
				result = existing
				return nil
			}
			return apperror.NewAlreadyAllocated(batchID, jobID)
		case !apperror.IsNotFound(err):
			return err
		}

		if b.ApprovalStatus != batch.ApprovalApproved {
			return apperror.NewNotApproved(batchID, string(b.ApprovalStatus), string(b.Status))
		}
		if b.JobAllocatedTo != nil {
			return apperror.NewAlreadyAllocated(batchID, *b.JobAllocatedTo)
		}
		if b.Status != batch.StatusActive {
			return apperror.NewNotApproved(batchID, string(b.ApprovalStatus), string(b.Status))
		}
		if qty <= 0 {
			return apperror.NewValidation("quantity must be positive").WithDetail("quantity", qty)
		}
		if qty > b.RemainingQuantity {
			return apperror.NewInsufficientQuantity(batchID, qty, b.RemainingQuantity)
		}

		b.RemainingQuantity -= qty
		if b.RemainingQuantity == 0 {
			b.Status = batch.StatusConsumed
			b.JobAllocatedTo = &jobID
		}
		if err := s.batches.Update(ctx, b); err != nil {
			return err
		}

		a := &Allocation{
			ID:          id.New(),
			BatchID:     batchID,
			JobID:       jobID,
			ProductID:   b.ProductID,
			Quantity:    qty,
			UnitCost:    b.UnitCost,
			Status:      StatusActive,
			AllocatedBy: actor,
			AllocatedAt: s.now().UTC(),
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}

		if _, _, err := s.ledger.Append(ctx, ledger.AppendInput{
			ProductID:     b.ProductID,
			EventType:     ledger.EventJobIssue,
			QuantityDelta: -qty,
			UnitCost:      b.UnitCost,
			EffectiveDate: a.AllocatedAt,
			SourceRef:     SourceRef(batchID, jobID),
		}); err != nil {
			return err
		}

		result = a
		created = true
		return s.publisher.Publish(ctx, events.New(events.AllocationCreated, events.AggregateBatch, batchID, map[string]any{
			"allocation_id": a.ID,
			"job_id":        jobID,
			"product_id":    b.ProductID,
			"quantity":      qty,
			"remaining":     b.RemainingQuantity,
		}))
	})
	if err != nil {
		return nil, err
	}

	if created {
		logger.Info(ctx, "batch allocated",
			"batch_id", batchID,
			"job_id", jobID,
			"quantity", qty,
		)
	}
	return result, nil
}

// Release returns an allocation's quantity to its batch. Releasing an already
// released allocation returns it unchanged. Stock issued to a closed job is
// consumed and cannot be released.
func (s *Service) Release(ctx context.Context, batchID, jobID id.ID, actor string) (*Allocation, error) {
	var (
		result   *Allocation
		released bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.jobs.EnsureOpen(ctx, jobID); err != nil {
			return err
		}

		b, err := s.batches.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		a, err := s.repo.Get(ctx, batchID, jobID)
		if err != nil {
			return err
		}
		if a.Status == StatusReleased {
			result = a
			return nil
		}

		b.RemainingQuantity += a.Quantity
		if b.RemainingQuantity > b.Quantity {
			return apperror.NewInvalidState("batch", batchID, "over-released").
				WithDetail("remaining", b.RemainingQuantity).
				WithDetail("quantity", b.Quantity)
		}
		b.Status = batch.StatusActive
		// The binding belongs to the job that took the last units.
		if b.JobAllocatedTo != nil && *b.JobAllocatedTo == jobID {
			b.JobAllocatedTo = nil
		}
		if err := s.batches.Update(ctx, b); err != nil {
			return err
		}

		at := s.now().UTC()
		a.Status = StatusReleased
		a.ReleasedAt = &at
		if actor != "" {
			a.ReleasedBy = &actor
		}
		if err := s.repo.MarkReleased(ctx, a); err != nil {
			return err
		}

		if _, _, err := s.ledger.Append(ctx, ledger.AppendInput{
			ProductID:     a.ProductID,
			EventType:     ledger.EventAdjustmentIn,
			QuantityDelta: a.Quantity,
			UnitCost:      a.UnitCost,
			EffectiveDate: at,
			SourceRef:     SourceRef(batchID, jobID),
		}); err != nil {
			return err
		}

		result = a
		released = true
		return s.publisher.Publish(ctx, events.New(events.AllocationReleased, events.AggregateBatch, batchID, map[string]any{
			"allocation_id": a.ID,
			"job_id":        jobID,
			"product_id":    a.ProductID,
			"quantity":      a.Quantity,
			"remaining":     b.RemainingQuantity,
		}))
	})
	if err != nil {
		return nil, err
	}

	if released {
		logger.Info(ctx, "allocation released", "batch_id", batchID, "job_id", jobID, "quantity", result.Quantity)
	}
	return result, nil
}

// ListByJob returns the allocations made to a job.
func (s *Service) ListByJob(ctx context.Context, jobID id.ID) ([]Allocation, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// ListByBatch returns the allocations made from a batch.
func (s *Service) ListByBatch(ctx context.Context, batchID id.ID) ([]Allocation, error) {
	if _, err := s.batches.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.repo.ListByBatch(ctx, batchID)
}
