// Package valuation computes on-hand quantity and value.
// It is the only code path that aggregates quantities; callers never sum
// batches or movements themselves.
package valuation

import (
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
)

// Quantity is the on-hand breakdown of a product.
type Quantity struct {
	ProductID id.ID `json:"productId"`
	Opening   int64 `json:"opening"`
	Approved  int64 `json:"approved"`
	Pending   int64 `json:"pending"`
	Total     int64 `json:"total"`
}

// Value is the on-hand value of a product under specific identification:
// the opening balance at its cost plus each approved batch's remaining
// quantity at that batch's cost.
type Value struct {
	ProductID    id.ID       `json:"productId"`
	Quantity     int64       `json:"quantity"`
	OpeningValue types.Money `json:"openingValue"`
	BatchValue   types.Money `json:"batchValue"`
	Value        types.Money `json:"value"`
}

// AsOf is stock on hand at the end of a calendar day.
type AsOf struct {
	ProductID id.ID       `json:"productId"`
	Date      time.Time   `json:"date"`
	Quantity  int64       `json:"quantity"`
	Value     types.Money `json:"value"`
}

// Reconciliation compares the ledger replay with current batch state.
type Reconciliation struct {
	ProductID     id.ID       `json:"productId"`
	ReplayQty     int64       `json:"replayQuantity"`
	BatchStateQty int64       `json:"batchStateQuantity"`
	ReplayValue   types.Money `json:"replayValue"`
	BatchValue    types.Money `json:"batchStateValue"`
	Balanced      bool        `json:"balanced"`
}

// StockCardLine is one movement with the running balance after it.
type StockCardLine struct {
	ledger.MovementRecord
	Balance int64 `json:"balance"`
}

// StockCard is the movement history of a product over a date range.
type StockCard struct {
	ProductID id.ID           `json:"productId"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Opening   int64           `json:"opening"`
	Receipts  int64           `json:"receipts"`
	Issues    int64           `json:"issues"`
	Closing   int64           `json:"closing"`
	Lines     []StockCardLine `json:"lines"`
}

// Layer is one cost layer of on-hand stock.
type Layer struct {
	Source       string      `json:"source"` // "opening" or the batch number
	BatchID      *id.ID      `json:"batchId,omitempty"`
	ReceivedDate time.Time   `json:"receivedDate"`
	Quantity     int64       `json:"quantity"`
	UnitCost     types.Money `json:"unitCost"`
	Value        types.Money `json:"value"`
}

// ReorderStatus compares on-hand stock with the product's thresholds.
type ReorderStatus struct {
	ProductID         id.ID `json:"productId"`
	OnHand            int64 `json:"onHand"`
	Pending           int64 `json:"pending"`
	MinStock          int64 `json:"minStock"`
	ReorderPoint      int64 `json:"reorderPoint"`
	BelowMinimum      bool  `json:"belowMinimum"`
	ReorderNeeded     bool  `json:"reorderNeeded"`
	SuggestedQuantity int64 `json:"suggestedQuantity"`
}
