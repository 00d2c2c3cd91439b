package valuation_test

import (
	"partsledger/internal/app/apptest"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalog"
)

func apptestRegister(code string, opening, minStock, reorderPoint, reorderQty int64) catalog.RegisterInput {
	return catalog.RegisterInput{
		Code:                   code,
		Name:                   "Brake pad",
		MinStock:               minStock,
		ReorderPoint:           reorderPoint,
		ReorderQuantity:        reorderQty,
		OpeningBalanceQuantity: opening,
		OpeningUnitCost:        types.MustMoney("1.00"),
		OpeningBalanceDate:     apptest.Day("2026-01-01"),
	}
}
