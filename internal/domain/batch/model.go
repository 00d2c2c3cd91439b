// Package batch provides the batch registry and the approval state machine.
package batch

import (
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// ApprovalStatus is the inspection outcome of a batch.
// Transitions are one-way: pending → approved or pending → rejected.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Status is the physical lifecycle of a batch.
type Status string

const (
	StatusActive   Status = "active"
	StatusConsumed Status = "consumed"
	StatusInactive Status = "inactive"
)

// Decision is an inspector's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether d is approve or reject.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Outcome is the approval status the decision leads to.
func (d Decision) Outcome() ApprovalStatus {
	if d == DecisionApprove {
		return ApprovalApproved
	}
	return ApprovalRejected
}

// Batch is a quantity of one product received together at one unit cost.
// Batches are never deleted.
type Batch struct {
	ID                id.ID          `db:"id" json:"id"`
	Number            string         `db:"number" json:"number"`
	ProductID         id.ID          `db:"product_id" json:"productId"`
	SupplierID        *id.ID         `db:"supplier_id" json:"supplierId,omitempty"`
	Quantity          int64          `db:"quantity" json:"quantity"`
	RemainingQuantity int64          `db:"remaining_quantity" json:"remainingQuantity"`
	UnitCost          types.Money    `db:"unit_cost" json:"unitCost"`
	ReceivedDate      time.Time      `db:"received_date" json:"receivedDate"`
	ApprovalStatus    ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	ApprovedBy        *string        `db:"approved_by" json:"approvedBy,omitempty"`
	DecidedAt         *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	JobAllocatedTo    *id.ID         `db:"job_allocated_to" json:"jobAllocatedTo,omitempty"`
	Status            Status         `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	CreatedBy         string         `db:"created_by" json:"createdBy,omitempty"`
	Version           int            `db:"version" json:"version"`
}

// CountsAsStock reports whether the batch's remaining quantity is on hand.
func (b *Batch) CountsAsStock() bool {
	return b.ApprovalStatus == ApprovalApproved &&
		(b.Status == StatusActive || b.Status == StatusConsumed)
}

// IsPendingStock reports whether the batch counts toward pending quantity.
func (b *Batch) IsPendingStock() bool {
	return b.ApprovalStatus == ApprovalPending && b.Status == StatusActive
}

// RemainingValue is remaining quantity × unit cost, unrounded.
func (b *Batch) RemainingValue() types.Money {
	return types.Extend(b.RemainingQuantity, b.UnitCost)
}

// snapshot is the audited subset of fields.
func (b *Batch) snapshot() map[string]any {
	m := map[string]any{
		"approval_status":    string(b.ApprovalStatus),
		"status":             string(b.Status),
		"remaining_quantity": b.RemainingQuantity,
	}
	if b.ApprovedBy != nil {
		m["approved_by"] = *b.ApprovedBy
	}
	return m
}
