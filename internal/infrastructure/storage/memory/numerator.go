package memory

import (
	"context"
	"time"

	"partsledger/internal/core/numerator"
	pkgnumerator "partsledger/pkg/numerator"
)

// Numerator implements numerator.Generator over the store's sequence map.
// Every strategy behaves as strict.
type Numerator struct {
	s *Store
}

// NewNumerator creates a numerator over s.
func NewNumerator(s *Store) *Numerator {
	return &Numerator{s: s}
}

var _ numerator.Generator = (*Numerator)(nil)

func (n *Numerator) GetNextNumber(ctx context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	key := pkgnumerator.BuildKey(cfg, period)
	var next int64
	err := n.s.write(ctx, func(undo func(func())) error {
		prev := n.s.sequences[key]
		next = prev + 1
		n.s.sequences[key] = next
		undo(func() { n.s.sequences[key] = prev })
		return nil
	})
	if err != nil {
		return "", err
	}
	return pkgnumerator.FormatNumber(cfg, period, next), nil
}
