// Package events defines the domain events emitted by ledger transitions.
// Events are written to the transactional outbox by the caller's transaction
// and relayed to the broker by the worker.
package events

import (
	"context"
	"time"

	"partsledger/internal/core/id"
)

// Type names a domain event. It doubles as the broker subject suffix.
type Type string

const (
	BatchSubmitted   Type = "batch.submitted"
	BatchApproved    Type = "batch.approved"
	BatchRejected    Type = "batch.rejected"
	BatchDeactivated Type = "batch.deactivated"

	AllocationCreated  Type = "allocation.created"
	AllocationReleased Type = "allocation.released"

	ProductRegistered Type = "product.registered"

	JobOpened      Type = "job.opened"
	JobTabApproved Type = "job.tab_approved"
	JobClosed      Type = "job.closed"
)

// Aggregate types.
const (
	AggregateBatch   = "batch"
	AggregateProduct = "product"
	AggregateJob     = "job"
)

// Event is a fact about a committed state change.
type Event struct {
	Type          Type           `json:"type"`
	AggregateType string         `json:"aggregateType"`
	AggregateID   id.ID          `json:"aggregateId"`
	Payload       map[string]any `json:"payload"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

// New builds an event stamped with the current time.
func New(t Type, aggregateType string, aggregateID id.ID, payload map[string]any) Event {
	return Event{
		Type:          t,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       payload,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher records an event as part of the caller's transaction.
// Implementations must not perform network I/O.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
