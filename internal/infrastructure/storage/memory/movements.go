package memory

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
)

// MovementRepo implements ledger.Repository. The dedup key index plays the role
// of the unique constraint.
type MovementRepo struct {
	s *Store
}

// NewMovementRepo creates a movement repository over s.
func NewMovementRepo(s *Store) *MovementRepo {
	return &MovementRepo{s: s}
}

var _ ledger.Repository = (*MovementRepo)(nil)

func (r *MovementRepo) Append(ctx context.Context, rec *ledger.MovementRecord) (bool, error) {
	inserted := false
	err := r.s.write(ctx, func(undo func(func())) error {
		key := movementKey{productID: rec.ProductID, sourceRef: rec.SourceRef, eventType: rec.EventType}
		if _, exists := r.s.movementKeys[key]; exists {
			return nil
		}
		r.s.movements = append(r.s.movements, *rec)
		n := len(r.s.movements) - 1
		r.s.movementKeys[key] = n
		inserted = true
		undo(func() {
			delete(r.s.movementKeys, key)
			r.s.movements = r.s.movements[:n]
		})
		return nil
	})
	return inserted, err
}

func (r *MovementRepo) FindBySource(ctx context.Context, productID id.ID, sourceRef string, eventType ledger.EventType) (*ledger.MovementRecord, error) {
	var out *ledger.MovementRecord
	err := r.s.read(ctx, func() error {
		n, ok := r.s.movementKeys[movementKey{productID: productID, sourceRef: sourceRef, eventType: eventType}]
		if !ok {
			return apperror.NewNotFound("movement", sourceRef)
		}
		rec := r.s.movements[n]
		out = &rec
		return nil
	})
	return out, err
}

func (r *MovementRepo) ListForReplay(ctx context.Context, productID id.ID, upTo time.Time) ([]ledger.MovementRecord, error) {
	f := ledger.Filter{ProductID: productID}
	if !upTo.IsZero() {
		day := types.Day(upTo)
		f.ToDate = &day
	}
	return r.List(ctx, f)
}

func (r *MovementRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.MovementRecord, error) {
	var out []ledger.MovementRecord
	err := r.s.read(ctx, func() error {
		for _, rec := range r.s.movements {
			if filter.Matches(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ledger.SortForReplay(out)
	return filter.Page(out), nil
}
