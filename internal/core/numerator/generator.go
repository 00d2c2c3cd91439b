// Package numerator provides domain contracts for human-readable numbering
// (batch numbers such as BT-2026-00042).
// Implementations live in pkg/numerator (Postgres) and the in-memory store.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential numbers.
type Generator interface {
	// GetNextNumber generates the next number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., BT-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}
