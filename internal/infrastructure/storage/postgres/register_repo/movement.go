// Package register_repo provides the PostgreSQL movement ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/postgres"
)

const movementsTable = "movement_records"

// replayOrder is the canonical replay order.
var replayOrder = []string{"effective_date", "created_at", "id"}

// MovementRepo implements ledger.Repository over movement_records.
// The unique constraint on (product_id, source_ref, event_type) is the dedup guard.
type MovementRepo struct {
	postgres.BaseRepo[ledger.MovementRecord]
}

var _ ledger.Repository = (*MovementRepo)(nil)

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		BaseRepo: postgres.NewBaseRepo[ledger.MovementRecord](txManager, movementsTable, "movement"),
	}
}

// appendQuery builds the conflict-suppressed insert.
func (r *MovementRepo) appendQuery(rec *ledger.MovementRecord) squirrel.InsertBuilder {
	return r.InsertBuilder(rec).
		Suffix("ON CONFLICT (product_id, source_ref, event_type) DO NOTHING")
}

// Append inserts rec unless its dedup key already exists.
func (r *MovementRepo) Append(ctx context.Context, rec *ledger.MovementRecord) (bool, error) {
	n, err := r.ExecAffected(ctx, r.appendQuery(rec), "append movement")
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *MovementRepo) FindBySource(ctx context.Context, productID id.ID, sourceRef string, eventType ledger.EventType) (*ledger.MovementRecord, error) {
	q := r.SelectBuilder().Where(squirrel.Eq{
		"product_id": productID,
		"source_ref": sourceRef,
		"event_type": eventType,
	})
	return r.GetOne(ctx, q, sourceRef)
}

func (r *MovementRepo) ListForReplay(ctx context.Context, productID id.ID, upTo time.Time) ([]ledger.MovementRecord, error) {
	f := ledger.Filter{ProductID: productID}
	if !upTo.IsZero() {
		day := types.Day(upTo)
		f.ToDate = &day
	}
	return r.List(ctx, f)
}

// listQuery translates a filter into SQL.
func (r *MovementRepo) listQuery(filter ledger.Filter) squirrel.SelectBuilder {
	q := r.SelectBuilder().OrderBy(replayOrder...)

	if !id.IsNil(filter.ProductID) {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if len(filter.EventTypes) > 0 {
		names := make([]string, len(filter.EventTypes))
		for i, et := range filter.EventTypes {
			names[i] = string(et)
		}
		q = q.Where(squirrel.Eq{"event_type": names})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"effective_date": types.Day(*filter.FromDate)})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"effective_date": types.Day(*filter.ToDate)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

func (r *MovementRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.MovementRecord, error) {
	records, err := r.SelectAll(ctx, r.listQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return records, nil
}
