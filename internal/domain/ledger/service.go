package ledger

import (
	"context"
	"fmt"
	"time"

	"partsledger/internal/core/apperror"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/pkg/logger"
)

// Service is the single write path into the movement log.
// Append must run inside the caller's transaction so the record commits or
// rolls back together with the state change that produced it.
type Service struct {
	repo     Repository
	observer Observer
	now      func() time.Time
}

// NewService creates a new movement log service.
func NewService(repo Repository, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		repo:     repo,
		observer: observer,
		now:      time.Now,
	}
}

// AppendInput describes a movement to record.
type AppendInput struct {
	ProductID     id.ID
	EventType     EventType
	QuantityDelta int64
	UnitCost      types.Money
	EffectiveDate time.Time
	SourceRef     string
}

// Append records a movement. When the dedup key already exists, the stored record is
// returned with appended=false and nothing is written.
func (s *Service) Append(ctx context.Context, in AppendInput) (rec MovementRecord, appended bool, err error) {
	rec = MovementRecord{
		ID:            id.New(),
		ProductID:     in.ProductID,
		EventType:     in.EventType,
		QuantityDelta: in.QuantityDelta,
		UnitCost:      in.UnitCost,
		EffectiveDate: types.Day(in.EffectiveDate),
		SourceRef:     in.SourceRef,
		CreatedAt:     s.now().UTC(),
		CreatedBy:     appctx.GetUserID(ctx),
	}
	if err := rec.Validate(); err != nil {
		return MovementRecord{}, false, err
	}

	inserted, err := s.repo.Append(ctx, &rec)
	if err != nil {
		return MovementRecord{}, false, fmt.Errorf("append movement: %w", err)
	}

	if !inserted {
		s.observer.MovementDeduplicated(rec.EventType)
		existing, err := s.repo.FindBySource(ctx, rec.ProductID, rec.SourceRef, rec.EventType)
		if err != nil {
			return MovementRecord{}, false, fmt.Errorf("load deduplicated movement: %w", err)
		}
		logger.Debug(ctx, "movement already recorded",
			"product_id", rec.ProductID,
			"event_type", rec.EventType,
			"source_ref", rec.SourceRef,
		)
		return *existing, false, nil
	}

	s.observer.MovementAppended(rec.EventType)
	logger.Info(ctx, "movement recorded",
		"movement_id", rec.ID,
		"product_id", rec.ProductID,
		"event_type", rec.EventType,
		"delta", rec.QuantityDelta,
		"source_ref", rec.SourceRef,
	)

	return rec, true, nil
}

// History returns the product's records up to and including the given day in replay
// order. A zero upTo returns the full history.
func (s *Service) History(ctx context.Context, productID id.ID, upTo time.Time) ([]MovementRecord, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product_id is required")
	}
	records, err := s.repo.ListForReplay(ctx, productID, upTo)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return records, nil
}

// List returns records matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]MovementRecord, error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, apperror.NewValidation("from date must not be after to date")
	}
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return records, nil
}
