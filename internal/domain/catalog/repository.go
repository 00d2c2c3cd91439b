package catalog

import (
	"context"

	"partsledger/internal/core/id"
)

// Repository persists products.
type Repository interface {
	// Create inserts a product. A duplicate code is a conflict.
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

// Reader is the read side other domains depend on.
type Reader interface {
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
}
