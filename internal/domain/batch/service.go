package batch

import (
	"context"
	"fmt"
	"time"

	"partsledger/internal/core/apperror"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/id"
	"partsledger/internal/core/numerator"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/ledger"
	"partsledger/pkg/logger"
)

// NumberPrefix is the numerator prefix for batch numbers (BT-2026-00001).
const NumberPrefix = "BT"

// Service provides batch registration and approval decisions.
type Service struct {
	repo      Repository
	products  catalog.Reader
	ledger    *ledger.Service
	numerator numerator.Generator
	publisher events.Publisher
	audit     audit.Recorder
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new batch service.
func NewService(
	repo Repository,
	products catalog.Reader,
	ledgerSvc *ledger.Service,
	gen numerator.Generator,
	publisher events.Publisher,
	recorder audit.Recorder,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		ledger:    ledgerSvc,
		numerator: gen,
		publisher: publisher,
		audit:     recorder,
		txManager: txManager,
		now:       time.Now,
	}
}

// SubmitInput describes a received batch awaiting inspection.
type SubmitInput struct {
	ProductID    id.ID
	Quantity     int64
	UnitCost     types.Money
	SupplierID   *id.ID
	ReceivedDate time.Time
}

// Submit registers a new batch as pending, active and unallocated.
// Nothing is written to the movement log until the batch is approved.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Batch, error) {
	if in.Quantity < 0 {
		return nil, apperror.NewValidation("quantity must not be negative").WithDetail("quantity", in.Quantity)
	}
	if in.UnitCost.IsNegative() {
		return nil, apperror.NewValidation("unit cost must not be negative").WithDetail("unit_cost", in.UnitCost.String())
	}
	if in.ReceivedDate.IsZero() {
		return nil, apperror.NewValidation("received date is required")
	}
	now := s.now().UTC()
	received := types.Day(in.ReceivedDate)
	if received.After(types.Day(now)) {
		return nil, apperror.NewValidation("received date is in the future").
			WithDetail("received_date", received.Format(time.DateOnly))
	}
	if _, err := catalog.Require(ctx, s.products, in.ProductID); err != nil {
		return nil, err
	}

	b := &Batch{
		ID:                id.New(),
		ProductID:         in.ProductID,
		SupplierID:        in.SupplierID,
		Quantity:          in.Quantity,
		RemainingQuantity: in.Quantity,
		UnitCost:          in.UnitCost,
		ReceivedDate:      received,
		ApprovalStatus:    ApprovalPending,
		Status:            StatusActive,
		CreatedAt:         now,
		CreatedBy:         appctx.GetUserID(ctx),
		Version:           1,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), nil, received)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		b.Number = number

		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, events.New(events.BatchSubmitted, events.AggregateBatch, b.ID, map[string]any{
			"number":     b.Number,
			"product_id": b.ProductID,
			"quantity":   b.Quantity,
			"unit_cost":  b.UnitCost.String(),
		}))
	})
	if err != nil {
		return nil, fmt.Errorf("submit batch: %w", err)
	}

	logger.Info(ctx, "batch submitted",
		"batch_id", b.ID,
		"number", b.Number,
		"product_id", b.ProductID,
		"quantity", b.Quantity,
	)
	return b, nil
}

// Decide applies an inspector's decision to a pending batch.
//
// Approval appends the batch_receipt movement in the same transaction.
// Repeating the decision a batch already carries returns it unchanged;
// the opposite decision is an invalid state.
func (s *Service) Decide(ctx context.Context, batchID id.ID, decision Decision, approverID string) (*Batch, error) {
	if approverID == "" {
		return nil, apperror.NewValidation("approver is required")
	}
	if !decision.Valid() {
		return nil, apperror.NewValidation("decision must be approve or reject").WithDetail("decision", decision)
	}

	var (
		result  *Batch
		changed bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if b.Status == StatusInactive {
			return apperror.NewInvalidState("batch", b.ID, string(StatusInactive))
		}
		if b.ApprovalStatus != ApprovalPending {
			if b.ApprovalStatus == decision.Outcome() {
				result = b
				return nil
			}
			return apperror.NewInvalidState("batch", b.ID, string(b.ApprovalStatus))
		}

		before := b.snapshot()
		decidedAt := s.now().UTC()
		b.ApprovalStatus = decision.Outcome()
		b.ApprovedBy = &approverID
		b.DecidedAt = &decidedAt

		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}

		eventType := events.BatchRejected
		action := audit.ActionReject
		if decision == DecisionApprove {
			eventType = events.BatchApproved
			action = audit.ActionApprove
			if _, _, err := s.ledger.Append(ctx, ledger.AppendInput{
				ProductID:     b.ProductID,
				EventType:     ledger.EventBatchReceipt,
				QuantityDelta: b.Quantity,
				UnitCost:      b.UnitCost,
				EffectiveDate: b.ReceivedDate,
				SourceRef:     b.ID.String(),
			}); err != nil {
				return err
			}
		}

		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: events.AggregateBatch,
			EntityID:   b.ID,
			Action:     action,
			UserID:     approverID,
			Changes:    audit.Diff(before, b.snapshot()),
			At:         decidedAt,
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		if err := s.publisher.Publish(ctx, events.New(eventType, events.AggregateBatch, b.ID, map[string]any{
			"product_id":  b.ProductID,
			"quantity":    b.Quantity,
			"unit_cost":   b.UnitCost.String(),
			"approved_by": approverID,
		})); err != nil {
			return err
		}

		result = b
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logger.Info(ctx, "batch decided",
			"batch_id", result.ID,
			"decision", decision,
			"approver", approverID,
		)
	}
	return result, nil
}

// Deactivate retires a pending or rejected batch. Approved stock leaves the
// ledger only through allocation.
func (s *Service) Deactivate(ctx context.Context, batchID id.ID) (*Batch, error) {
	var result *Batch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b.Status == StatusInactive {
			result = b
			return nil
		}
		if b.ApprovalStatus == ApprovalApproved {
			return apperror.NewInvalidState("batch", b.ID, string(ApprovalApproved))
		}

		before := b.snapshot()
		b.Status = StatusInactive
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: events.AggregateBatch,
			EntityID:   b.ID,
			Action:     audit.ActionDeactivate,
			UserID:     appctx.GetUserID(ctx),
			Changes:    audit.Diff(before, b.snapshot()),
			At:         s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}
		result = b
		return s.publisher.Publish(ctx, events.New(events.BatchDeactivated, events.AggregateBatch, b.ID, map[string]any{
			"product_id": b.ProductID,
		}))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a batch by ID.
func (s *Service) Get(ctx context.Context, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// ListByProduct returns the product's batches in insertion order.
func (s *Service) ListByProduct(ctx context.Context, productID id.ID) ([]Batch, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListByProduct(ctx, productID)
}
