// Package ledger provides the append-only movement log.
// Every change to a product's stock is a MovementRecord; quantities as of any
// date are reproduced by replaying records in order.
package ledger

import (
	"slices"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// EventType classifies a movement.
type EventType string

const (
	EventOpeningBalance EventType = "opening_balance"
	EventBatchReceipt   EventType = "batch_receipt"
	EventJobIssue       EventType = "job_issue"
	EventAdjustmentIn   EventType = "adjustment_in"
	EventAdjustmentOut  EventType = "adjustment_out"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	EventOpeningBalance,
	EventBatchReceipt,
	EventJobIssue,
	EventAdjustmentIn,
	EventAdjustmentOut,
}

// Valid reports whether e is a known event type.
func (e EventType) Valid() bool {
	return slices.Contains(EventTypes, e)
}

// Outbound reports whether the event type removes stock.
func (e EventType) Outbound() bool {
	return e == EventJobIssue || e == EventAdjustmentOut
}

// MovementRecord is an immutable entry of the movement log.
// (ProductID, SourceRef, EventType) is unique.
type MovementRecord struct {
	ID            id.ID       `db:"id" json:"id"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	EventType     EventType   `db:"event_type" json:"eventType"`
	QuantityDelta int64       `db:"quantity_delta" json:"quantityDelta"`
	UnitCost      types.Money `db:"unit_cost" json:"unitCost"`
	EffectiveDate time.Time   `db:"effective_date" json:"effectiveDate"`
	SourceRef     string      `db:"source_ref" json:"sourceRef"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy     string      `db:"created_by" json:"createdBy,omitempty"`
}

// Value is QuantityDelta × UnitCost, unrounded.
func (r MovementRecord) Value() types.Money {
	return types.Extend(r.QuantityDelta, r.UnitCost)
}

// Validate checks the record before it is appended.
func (r MovementRecord) Validate() error {
	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product_id is required")
	}
	if !r.EventType.Valid() {
		return apperror.NewValidation("unknown event type").WithDetail("event_type", r.EventType)
	}
	if r.SourceRef == "" {
		return apperror.NewValidation("source_ref is required")
	}
	if r.EffectiveDate.IsZero() {
		return apperror.NewValidation("effective_date is required")
	}
	if r.UnitCost.IsNegative() {
		return apperror.NewValidation("unit_cost must not be negative")
	}
	if r.EventType.Outbound() && r.QuantityDelta > 0 {
		return apperror.NewValidation("outbound movement must have a non-positive delta").
			WithDetail("event_type", r.EventType)
	}
	if !r.EventType.Outbound() && r.QuantityDelta < 0 {
		return apperror.NewValidation("inbound movement must have a non-negative delta").
			WithDetail("event_type", r.EventType)
	}
	return nil
}

// CompareReplay orders records by (effective date, created at, id).
func CompareReplay(a, b MovementRecord) int {
	if c := a.EffectiveDate.Compare(b.EffectiveDate); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return id.Compare(a.ID, b.ID)
}

// SortForReplay sorts records in replay order.
func SortForReplay(records []MovementRecord) {
	slices.SortStableFunc(records, CompareReplay)
}

// Totals is the result of replaying a sequence of records.
type Totals struct {
	Quantity int64
	Value    types.Money
}

// Replay sums every non-opening record whose effective day is on or before upTo.
// A zero upTo means no date bound. Opening balances are carried on the product
// and are added by the caller.
func Replay(records []MovementRecord, upTo time.Time) Totals {
	t := Totals{Value: types.Zero()}
	bound := !upTo.IsZero()
	day := types.Day(upTo)
	for _, r := range records {
		if r.EventType == EventOpeningBalance {
			continue
		}
		if bound && types.Day(r.EffectiveDate).After(day) {
			continue
		}
		t.Quantity += r.QuantityDelta
		t.Value = t.Value.Add(r.Value())
	}
	return t
}

// Filter narrows movement history queries.
type Filter struct {
	ProductID  id.ID
	EventTypes []EventType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// Matches reports whether r passes the filter. Used by non-SQL stores.
func (f Filter) Matches(r MovementRecord) bool {
	if !id.IsNil(f.ProductID) && r.ProductID != f.ProductID {
		return false
	}
	if len(f.EventTypes) > 0 && !slices.Contains(f.EventTypes, r.EventType) {
		return false
	}
	day := types.Day(r.EffectiveDate)
	if f.FromDate != nil && day.Before(types.Day(*f.FromDate)) {
		return false
	}
	if f.ToDate != nil && day.After(types.Day(*f.ToDate)) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered, ordered slice.
func (f Filter) Page(records []MovementRecord) []MovementRecord {
	start := min(max(f.Offset, 0), len(records))
	records = records[start:]
	if f.Limit > 0 {
		records = records[:min(f.Limit, len(records))]
	}
	return records
}
