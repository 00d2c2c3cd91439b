// Package catalog provides the product catalog the ledger values stock against.
package catalog

import (
	"strings"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Product is a stockable part. The opening balance is the stock carried over from
// before the ledger existed and is the base every quantity is computed from.
type Product struct {
	ID                     id.ID       `db:"id" json:"id"`
	Code                   string      `db:"code" json:"code"`
	Name                   string      `db:"name" json:"name"`
	Unit                   string      `db:"unit" json:"unit"`
	MinStock               int64       `db:"min_stock" json:"minStock"`
	ReorderPoint           int64       `db:"reorder_point" json:"reorderPoint"`
	ReorderQuantity        int64       `db:"reorder_quantity" json:"reorderQuantity"`
	OpeningBalanceQuantity int64       `db:"opening_balance_quantity" json:"openingBalanceQuantity"`
	OpeningUnitCost        types.Money `db:"opening_unit_cost" json:"openingUnitCost"`
	OpeningBalanceDate     time.Time   `db:"opening_balance_date" json:"openingBalanceDate"`
	CreatedAt              time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy              string      `db:"created_by" json:"createdBy,omitempty"`
}

// OpeningValue is opening quantity × opening unit cost, unrounded.
func (p *Product) OpeningValue() types.Money {
	return types.Extend(p.OpeningBalanceQuantity, p.OpeningUnitCost)
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return apperror.NewValidation("code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required")
	}
	if p.OpeningBalanceQuantity < 0 {
		return apperror.NewValidation("opening balance quantity must not be negative").
			WithDetail("opening_balance_quantity", p.OpeningBalanceQuantity)
	}
	if p.OpeningUnitCost.IsNegative() {
		return apperror.NewValidation("opening unit cost must not be negative")
	}
	if p.MinStock < 0 || p.ReorderPoint < 0 || p.ReorderQuantity < 0 {
		return apperror.NewValidation("stock thresholds must not be negative")
	}
	return nil
}
