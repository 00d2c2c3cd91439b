package dto

import (
	"time"

	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalog"
)

// RegisterProductRequest creates a product with its opening balance.
type RegisterProductRequest struct {
	Code                   string      `json:"code" binding:"required"`
	Name                   string      `json:"name" binding:"required"`
	Unit                   string      `json:"unit,omitempty"`
	MinStock               int64       `json:"minStock" binding:"gte=0"`
	ReorderPoint           int64       `json:"reorderPoint" binding:"gte=0"`
	ReorderQuantity        int64       `json:"reorderQuantity" binding:"gte=0"`
	OpeningBalanceQuantity int64       `json:"openingBalanceQuantity"`
	OpeningUnitCost        types.Money `json:"openingUnitCost"`
	OpeningBalanceDate     string      `json:"openingBalanceDate,omitempty"` // YYYY-MM-DD, default today
}

// ToInput converts the request into a catalog.RegisterInput.
func (r *RegisterProductRequest) ToInput(today time.Time) (catalog.RegisterInput, error) {
	openingDate, err := ParseDate("openingBalanceDate", r.OpeningBalanceDate, today)
	if err != nil {
		return catalog.RegisterInput{}, err
	}
	return catalog.RegisterInput{
		Code:                   r.Code,
		Name:                   r.Name,
		Unit:                   r.Unit,
		MinStock:               r.MinStock,
		ReorderPoint:           r.ReorderPoint,
		ReorderQuantity:        r.ReorderQuantity,
		OpeningBalanceQuantity: r.OpeningBalanceQuantity,
		OpeningUnitCost:        r.OpeningUnitCost,
		OpeningBalanceDate:     openingDate,
	}, nil
}
