// Package catalog_repo provides the PostgreSQL product catalog.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	postgres.BaseRepo[catalog.Product]
}

var _ catalog.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseRepo: postgres.NewBaseRepo[catalog.Product](txManager, productsTable, "product"),
	}
}

// Create inserts p. Codes are unique case-insensitively.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	err := r.Insert(ctx, p)
	if postgres.IsUniqueViolation(err) {
		return apperror.NewConflict("product code already exists").WithDetail("code", p.Code)
	}
	return err
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return r.GetOne(ctx, r.SelectBuilder().Where(squirrel.Eq{"id": productID}), productID)
}

func (r *ProductRepo) byCodeQuery(code string) squirrel.SelectBuilder {
	return r.SelectBuilder().Where(squirrel.Expr("LOWER(code) = LOWER(?)", code))
}

func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*catalog.Product, error) {
	return r.GetOne(ctx, r.byCodeQuery(code), code)
}

func (r *ProductRepo) List(ctx context.Context) ([]catalog.Product, error) {
	return r.SelectAll(ctx, r.SelectBuilder().OrderBy("code"))
}
