package valuation

import (
	"context"
	"fmt"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/ledger"
)

// BatchLister is the batch read side the engine needs.
type BatchLister interface {
	ListByProduct(ctx context.Context, productID id.ID) ([]batch.Batch, error)
}

// Engine computes aggregates on read. Each call reads one snapshot.
type Engine struct {
	products  catalog.Reader
	batches   BatchLister
	ledger    *ledger.Service
	txManager tx.ReadOnlyManager
}

// NewEngine creates a new valuation engine.
func NewEngine(products catalog.Reader, batches BatchLister, ledgerSvc *ledger.Service, txManager tx.ReadOnlyManager) *Engine {
	return &Engine{
		products:  products,
		batches:   batches,
		ledger:    ledgerSvc,
		txManager: txManager,
	}
}

type snapshot struct {
	product *catalog.Product
	batches []batch.Batch
}

func (e *Engine) load(ctx context.Context, productID id.ID, withBatches bool) (*snapshot, error) {
	p, err := e.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	s := &snapshot{product: p}
	if withBatches {
		if s.batches, err = e.batches.ListByProduct(ctx, productID); err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
	}
	return s, nil
}

func (s *snapshot) quantity() Quantity {
	q := Quantity{ProductID: s.product.ID, Opening: s.product.OpeningBalanceQuantity}
	for i := range s.batches {
		b := &s.batches[i]
		switch {
		case b.CountsAsStock():
			q.Approved += b.RemainingQuantity
		case b.IsPendingStock():
			q.Pending += b.Quantity
		}
	}
	q.Total = q.Opening + q.Approved
	return q
}

func (s *snapshot) batchValue() types.Money {
	v := types.Zero()
	for i := range s.batches {
		if b := &s.batches[i]; b.CountsAsStock() {
			v = v.Add(b.RemainingValue())
		}
	}
	return v
}

// Quantity returns approved, pending and total on-hand quantity.
// Total is opening plus approved; pending stock is not on hand.
func (e *Engine) Quantity(ctx context.Context, productID id.ID) (Quantity, error) {
	var q Quantity
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, true)
		if err != nil {
			return err
		}
		q = s.quantity()
		return nil
	})
	return q, err
}

// BatchStateQuantity is opening plus the remaining quantity of approved batches.
func (e *Engine) BatchStateQuantity(ctx context.Context, productID id.ID) (int64, error) {
	q, err := e.Quantity(ctx, productID)
	if err != nil {
		return 0, err
	}
	return q.Total, nil
}

// CurrentQuantity replays the full movement log over the opening balance.
func (e *Engine) CurrentQuantity(ctx context.Context, productID id.ID) (int64, error) {
	a, err := e.replay(ctx, productID, time.Time{})
	if err != nil {
		return 0, err
	}
	return a.Quantity, nil
}

// CurrentValue returns on-hand value rounded to cents.
func (e *Engine) CurrentValue(ctx context.Context, productID id.ID) (Value, error) {
	var v Value
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, true)
		if err != nil {
			return err
		}
		opening := s.product.OpeningValue()
		batches := s.batchValue()
		v = Value{
			ProductID:    productID,
			Quantity:     s.quantity().Total,
			OpeningValue: types.RoundMoney(opening),
			BatchValue:   types.RoundMoney(batches),
			Value:        types.RoundMoney(opening.Add(batches)),
		}
		return nil
	})
	return v, err
}

// AsOfQuantity returns the quantity on hand at the end of date's calendar day.
func (e *Engine) AsOfQuantity(ctx context.Context, productID id.ID, date time.Time) (int64, error) {
	a, err := e.AsOfValue(ctx, productID, date)
	if err != nil {
		return 0, err
	}
	return a.Quantity, nil
}

// AsOfValue returns quantity and value on hand at the end of date's calendar day.
func (e *Engine) AsOfValue(ctx context.Context, productID id.ID, date time.Time) (AsOf, error) {
	if date.IsZero() {
		return AsOf{}, apperror.NewValidation("date is required")
	}
	return e.replay(ctx, productID, types.Day(date))
}

func (e *Engine) replay(ctx context.Context, productID id.ID, upTo time.Time) (AsOf, error) {
	var a AsOf
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, false)
		if err != nil {
			return err
		}
		records, err := e.ledger.History(ctx, productID, upTo)
		if err != nil {
			return err
		}
		totals := ledger.Replay(records, upTo)
		a = AsOf{
			ProductID: productID,
			Date:      upTo,
			Quantity:  s.product.OpeningBalanceQuantity + totals.Quantity,
			Value:     types.RoundMoney(s.product.OpeningValue().Add(totals.Value)),
		}
		return nil
	})
	return a, err
}

// Reconcile compares the ledger replay with batch state. The two must agree;
// a mismatch means a write bypassed the ledger.
func (e *Engine) Reconcile(ctx context.Context, productID id.ID) (Reconciliation, error) {
	var r Reconciliation
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, true)
		if err != nil {
			return err
		}
		records, err := e.ledger.History(ctx, productID, time.Time{})
		if err != nil {
			return err
		}
		totals := ledger.Replay(records, time.Time{})
		opening := s.product.OpeningValue()

		r = Reconciliation{
			ProductID:     productID,
			ReplayQty:     s.product.OpeningBalanceQuantity + totals.Quantity,
			BatchStateQty: s.quantity().Total,
			ReplayValue:   types.RoundMoney(opening.Add(totals.Value)),
			BatchValue:    types.RoundMoney(opening.Add(s.batchValue())),
		}
		r.Balanced = r.ReplayQty == r.BatchStateQty && r.ReplayValue.Equal(r.BatchValue)
		return nil
	})
	return r, err
}

// StockCard returns the product's movements with effective day in [from, to]
// and a running balance starting from the balance at the end of the day before from.
func (e *Engine) StockCard(ctx context.Context, productID id.ID, from, to time.Time) (StockCard, error) {
	from, to = types.Day(from), types.Day(to)
	if from.After(to) {
		return StockCard{}, apperror.NewValidation("from date must not be after to date")
	}

	var card StockCard
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, false)
		if err != nil {
			return err
		}
		records, err := e.ledger.History(ctx, productID, to)
		if err != nil {
			return err
		}

		card = StockCard{ProductID: productID, From: from, To: to, Lines: []StockCardLine{}}
		balance := s.product.OpeningBalanceQuantity
		for _, r := range records {
			if r.EventType == ledger.EventOpeningBalance {
				continue
			}
			if types.Day(r.EffectiveDate).Before(from) {
				balance += r.QuantityDelta
				continue
			}
			if len(card.Lines) == 0 {
				card.Opening = balance
			}
			balance += r.QuantityDelta
			if r.QuantityDelta >= 0 {
				card.Receipts += r.QuantityDelta
			} else {
				card.Issues -= r.QuantityDelta
			}
			card.Lines = append(card.Lines, StockCardLine{MovementRecord: r, Balance: balance})
		}
		if len(card.Lines) == 0 {
			card.Opening = balance
		}
		card.Closing = balance
		return nil
	})
	return card, err
}

// Layers returns on-hand stock broken down by cost layer: the opening balance
// first, then approved batches with remaining quantity in insertion order.
func (e *Engine) Layers(ctx context.Context, productID id.ID) ([]Layer, error) {
	var layers []Layer
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, true)
		if err != nil {
			return err
		}
		p := s.product
		if p.OpeningBalanceQuantity > 0 {
			layers = append(layers, Layer{
				Source:       "opening",
				ReceivedDate: p.OpeningBalanceDate,
				Quantity:     p.OpeningBalanceQuantity,
				UnitCost:     p.OpeningUnitCost,
				Value:        types.RoundMoney(p.OpeningValue()),
			})
		}
		for i := range s.batches {
			b := &s.batches[i]
			if !b.CountsAsStock() || b.RemainingQuantity == 0 {
				continue
			}
			batchID := b.ID
			layers = append(layers, Layer{
				Source:       b.Number,
				BatchID:      &batchID,
				ReceivedDate: b.ReceivedDate,
				Quantity:     b.RemainingQuantity,
				UnitCost:     b.UnitCost,
				Value:        types.RoundMoney(b.RemainingValue()),
			})
		}
		return nil
	})
	return layers, err
}

// ReorderStatus reports whether on-hand stock has fallen to the reorder point.
// Pending batches are already on order and reduce the suggested quantity.
func (e *Engine) ReorderStatus(ctx context.Context, productID id.ID) (ReorderStatus, error) {
	var rs ReorderStatus
	err := e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		s, err := e.load(ctx, productID, true)
		if err != nil {
			return err
		}
		q := s.quantity()
		p := s.product
		rs = ReorderStatus{
			ProductID:    productID,
			OnHand:       q.Total,
			Pending:      q.Pending,
			MinStock:     p.MinStock,
			ReorderPoint: p.ReorderPoint,
			BelowMinimum: q.Total < p.MinStock,
		}
		rs.ReorderNeeded = p.ReorderPoint > 0 && q.Total+q.Pending <= p.ReorderPoint
		if rs.ReorderNeeded {
			rs.SuggestedQuantity = max(p.ReorderQuantity, p.ReorderPoint-q.Total-q.Pending+1)
		}
		return nil
	})
	return rs, err
}
