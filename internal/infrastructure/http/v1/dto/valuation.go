package dto

import (
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/valuation"
)

// AsOfQuantityResponse is the on-hand quantity at the end of a day.
type AsOfQuantityResponse struct {
	ProductID id.ID  `json:"productId"`
	Date      string `json:"date"`
	Quantity  int64  `json:"quantity"`
}

// AsOfValueResponse is the on-hand quantity and value at the end of a day.
type AsOfValueResponse struct {
	ProductID id.ID       `json:"productId"`
	Date      string      `json:"date"`
	Quantity  int64       `json:"quantity"`
	Value     types.Money `json:"value"`
}

// FromAsOf creates AsOfValueResponse.
func FromAsOf(a valuation.AsOf) AsOfValueResponse {
	return AsOfValueResponse{
		ProductID: a.ProductID,
		Date:      a.Date.Format(DateLayout),
		Quantity:  a.Quantity,
		Value:     a.Value,
	}
}

// MovementFilterRequest filters movement history.
type MovementFilterRequest struct {
	PaginationRequest
	EventType []string `form:"eventType"`
	From      string   `form:"from"`
	To        string   `form:"to"`
}
