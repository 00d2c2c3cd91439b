package ledger

import (
	"context"
	"time"

	"partsledger/internal/core/id"
)

// Repository stores movement records. There is no update or delete.
type Repository interface {
	// Append inserts r unless a record with the same (product, source_ref, event_type)
	// exists. inserted is false when the insert was suppressed.
	Append(ctx context.Context, r *MovementRecord) (inserted bool, err error)

	// FindBySource returns the record identified by the dedup key.
	FindBySource(ctx context.Context, productID id.ID, sourceRef string, eventType EventType) (*MovementRecord, error)

	// ListForReplay returns the product's records with effective day on or before upTo
	// (all when upTo is zero), in replay order.
	ListForReplay(ctx context.Context, productID id.ID, upTo time.Time) ([]MovementRecord, error)

	// List returns records matching the filter in replay order.
	List(ctx context.Context, filter Filter) ([]MovementRecord, error)
}

// Observer is notified about appends. Metrics implement it.
type Observer interface {
	MovementAppended(eventType EventType)
	MovementDeduplicated(eventType EventType)
}

type nopObserver struct{}

func (nopObserver) MovementAppended(EventType)     {}
func (nopObserver) MovementDeduplicated(EventType) {}
