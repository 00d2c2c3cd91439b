// Package apptest provides ledger fixtures over the in-memory store for tests.
package apptest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partsledger/internal/app"
	appctx "partsledger/internal/core/context"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/jobtab"
	"partsledger/internal/infrastructure/storage/memory"
)

// Approver is the identity fixtures decide and approve with.
const Approver = "inspector-1"

var codeSeq atomic.Int64

// Fixture is a wired ledger over a fresh store.
type Fixture struct {
	*app.Ledger
	Store *memory.Store
	Ctx   context.Context
}

// New creates a fixture. The context carries a storekeeper identity.
func New(t testing.TB) *Fixture {
	t.Helper()
	l, s := app.NewMemory(nil)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "storekeeper-1",
		Roles:  []string{appctx.RoleStorekeeper},
	})
	return &Fixture{Ledger: l, Store: s, Ctx: ctx}
}

// Day parses YYYY-MM-DD.
func Day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Product registers a product with the given opening balance dated 2026-01-01.
func (f *Fixture) Product(t testing.TB, openingQty int64, openingCost string) *catalog.Product {
	t.Helper()
	p, err := f.Catalog.Register(f.Ctx, catalog.RegisterInput{
		Code:                   fmt.Sprintf("P-%04d", codeSeq.Add(1)),
		Name:                   "Hydraulic seal",
		OpeningBalanceQuantity: openingQty,
		OpeningUnitCost:        types.MustMoney(openingCost),
		OpeningBalanceDate:     Day("2026-01-01"),
	})
	require.NoError(t, err)
	return p
}

// Batch submits a pending batch received on the given day.
func (f *Fixture) Batch(t testing.TB, productID id.ID, qty int64, cost, received string) *batch.Batch {
	t.Helper()
	b, err := f.Batches.Submit(f.Ctx, batch.SubmitInput{
		ProductID:    productID,
		Quantity:     qty,
		UnitCost:     types.MustMoney(cost),
		ReceivedDate: Day(received),
	})
	require.NoError(t, err)
	return b
}

// ApprovedBatch submits and approves a batch.
func (f *Fixture) ApprovedBatch(t testing.TB, productID id.ID, qty int64, cost, received string) *batch.Batch {
	t.Helper()
	b := f.Batch(t, productID, qty, cost, received)
	b, err := f.Batches.Decide(f.Ctx, b.ID, batch.DecisionApprove, Approver)
	require.NoError(t, err)
	return b
}

// Job opens a job.
func (f *Fixture) Job(t testing.TB) *jobtab.Job {
	t.Helper()
	j, err := f.Jobs.Open(f.Ctx, id.New(), "WO-1001")
	require.NoError(t, err)
	return j
}
