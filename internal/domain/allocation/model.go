// Package allocation binds approved batches to jobs.
// Every allocation issues stock through a job_issue movement; every release
// returns it through a compensating adjustment_in movement.
package allocation

import (
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Status of an allocation.
type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

// Allocation is a quantity of one batch issued to one job.
// (BatchID, JobID) is unique.
type Allocation struct {
	ID          id.ID       `db:"id" json:"id"`
	BatchID     id.ID       `db:"batch_id" json:"batchId"`
	JobID       id.ID       `db:"job_id" json:"jobId"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitCost    types.Money `db:"unit_cost" json:"unitCost"`
	Status      Status      `db:"status" json:"status"`
	AllocatedBy string      `db:"allocated_by" json:"allocatedBy,omitempty"`
	AllocatedAt time.Time   `db:"allocated_at" json:"allocatedAt"`
	ReleasedBy  *string     `db:"released_by" json:"releasedBy,omitempty"`
	ReleasedAt  *time.Time  `db:"released_at" json:"releasedAt,omitempty"`
}

// SourceRef is the movement source reference shared by the issue and its release.
func SourceRef(batchID, jobID id.ID) string {
	return batchID.String() + ":" + jobID.String()
}
