// Package jobtab provides per-job approval tabs and the job close gate.
// A job closes only after all three of its tabs are approved.
package jobtab

import (
	"slices"
	"time"

	"partsledger/internal/core/id"
)

// Category names a tab. The set is closed.
type Category string

const (
	CategoryWarehouseA    Category = "warehouse_a"
	CategoryWarehouseBC   Category = "warehouse_bc"
	CategoryOwnerSupplied Category = "owner_supplied"
)

// Categories lists every tab in display order.
var Categories = []Category{
	CategoryWarehouseA,
	CategoryWarehouseBC,
	CategoryOwnerSupplied,
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, slices.Contains(Categories, c)
}

// Tab is the approval state of one category on one job.
type Tab struct {
	JobID      id.ID      `db:"job_id" json:"jobId"`
	Category   Category   `db:"category" json:"category"`
	Approved   bool       `db:"approved" json:"approved"`
	ApprovedBy *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
}

// Job is a maintenance job that consumes allocated batches.
type Job struct {
	ID            id.ID      `db:"id" json:"id"`
	Reference     string     `db:"reference" json:"reference"`
	Closed        bool       `db:"closed" json:"closed"`
	InvoiceNumber *string    `db:"invoice_number" json:"invoiceNumber,omitempty"`
	ClosedAt      *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	ClosedBy      *string    `db:"closed_by" json:"closedBy,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`

	Tabs []Tab `db:"-" json:"tabs"`
}

// Tab returns the tab for c, or nil.
func (j *Job) Tab(c Category) *Tab {
	for i := range j.Tabs {
		if j.Tabs[i].Category == c {
			return &j.Tabs[i]
		}
	}
	return nil
}

// PendingCategories lists tabs that are not yet approved.
func (j *Job) PendingCategories() []string {
	var pending []string
	for _, c := range Categories {
		if t := j.Tab(c); t == nil || !t.Approved {
			pending = append(pending, string(c))
		}
	}
	return pending
}

// AllApproved reports whether every tab is approved.
func (j *Job) AllApproved() bool {
	return len(j.PendingCategories()) == 0
}
