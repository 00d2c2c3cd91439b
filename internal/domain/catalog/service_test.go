package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/app/apptest"
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalog"
	"partsledger/internal/domain/events"
	"partsledger/internal/domain/ledger"
)

func TestRegister_WritesOpeningBalance(t *testing.T) {
	f := apptest.New(t)

	p, err := f.Catalog.Register(f.Ctx, catalog.RegisterInput{
		Code:                   " SEAL-01 ",
		Name:                   "O-ring seal",
		OpeningBalanceQuantity: 40,
		OpeningUnitCost:        types.MustMoney("1.25"),
		OpeningBalanceDate:     apptest.Day("2026-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SEAL-01", p.Code)
	assert.Equal(t, "ea", p.Unit)
	assert.True(t, types.MustMoney("50").Equal(p.OpeningValue()))

	records, err := f.Movements.History(f.Ctx, p.ID, apptest.Day("2026-01-01"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ledger.EventOpeningBalance, records[0].EventType)
	assert.Equal(t, int64(40), records[0].QuantityDelta)
	assert.Equal(t, p.ID.String(), records[0].SourceRef)

	got, err := f.Catalog.Get(f.Ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Code, got.Code)

	evs := f.Store.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, events.ProductRegistered, evs[len(evs)-1].Type)
}

func TestRegister_Validation(t *testing.T) {
	f := apptest.New(t)

	tests := []struct {
		name string
		in   catalog.RegisterInput
	}{
		{"missing code", catalog.RegisterInput{Name: "x"}},
		{"missing name", catalog.RegisterInput{Code: "x"}},
		{"negative opening", catalog.RegisterInput{Code: "x", Name: "x", OpeningBalanceQuantity: -1}},
		{"negative cost", catalog.RegisterInput{Code: "x", Name: "x", OpeningUnitCost: types.MustMoney("-1")}},
		{"negative threshold", catalog.RegisterInput{Code: "x", Name: "x", ReorderPoint: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Catalog.Register(f.Ctx, tt.in)
			assert.True(t, apperror.Is(err, apperror.CodeValidation))
		})
	}
}

func TestRegister_DuplicateCodeRollsBack(t *testing.T) {
	f := apptest.New(t)
	in := catalog.RegisterInput{Code: "DUP", Name: "first"}

	_, err := f.Catalog.Register(f.Ctx, in)
	require.NoError(t, err)

	in.Name = "second"
	_, err = f.Catalog.Register(f.Ctx, in)
	assert.True(t, apperror.Is(err, apperror.CodeConflict))

	list, err := f.Catalog.List(f.Ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := f.Movements.List(f.Ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRequire(t *testing.T) {
	f := apptest.New(t)
	p := f.Product(t, 0, "0")

	got, err := catalog.Require(f.Ctx, f.Catalog, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = catalog.Require(f.Ctx, f.Catalog, id.New())
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
