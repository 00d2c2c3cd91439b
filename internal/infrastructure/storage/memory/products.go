package memory

import (
	"context"
	"slices"
	"strings"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/catalog"
)

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	s *Store
}

// NewProductRepo creates a product repository over s.
func NewProductRepo(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

var _ catalog.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return r.s.write(ctx, func(undo func(func())) error {
		code := strings.ToLower(p.Code)
		if _, exists := r.s.productCodes[code]; exists {
			return apperror.NewConflict("product code already exists").WithDetail("code", p.Code)
		}
		if _, exists := r.s.products[p.ID]; exists {
			return apperror.NewConflict("product already exists").WithDetail("id", p.ID)
		}
		cp := *p
		r.s.products[p.ID] = &cp
		r.s.productCodes[code] = p.ID
		undo(func() {
			delete(r.s.products, p.ID)
			delete(r.s.productCodes, code)
		})
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.s.read(ctx, func() error {
		p, ok := r.s.products[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.s.read(ctx, func() error {
		productID, ok := r.s.productCodes[strings.ToLower(code)]
		if !ok {
			return apperror.NewNotFound("product", code)
		}
		cp := *r.s.products[productID]
		out = &cp
		return nil
	})
	return out, err
}

func (r *ProductRepo) List(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := r.s.read(ctx, func() error {
		out = make([]catalog.Product, 0, len(r.s.products))
		for _, p := range r.s.products {
			out = append(out, *p)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Product) int { return strings.Compare(a.Code, b.Code) })
	return out, err
}
