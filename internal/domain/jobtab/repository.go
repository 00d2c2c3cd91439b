package jobtab

import (
	"context"

	"partsledger/internal/core/id"
)

// Repository persists jobs and their tabs.
type Repository interface {
	// Create inserts the job together with its tabs. An existing ID is a conflict.
	Create(ctx context.Context, job *Job) error

	// Get returns the job with its tabs.
	Get(ctx context.Context, jobID id.ID) (*Job, error)

	// GetForUpdate returns the job with its tabs and locks the job row.
	GetForUpdate(ctx context.Context, jobID id.ID) (*Job, error)

	// UpdateTab stores the approval state of a single tab.
	UpdateTab(ctx context.Context, tab *Tab) error

	// Close stores the close fields of the job.
	Close(ctx context.Context, job *Job) error
}
