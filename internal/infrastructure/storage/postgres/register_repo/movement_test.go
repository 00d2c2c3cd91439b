package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
)

func TestMovementRepo_AppendQuery(t *testing.T) {
	r := NewMovementRepo(nil)
	rec := &ledger.MovementRecord{
		ID:            id.New(),
		ProductID:     id.New(),
		EventType:     ledger.EventBatchReceipt,
		QuantityDelta: 10,
		UnitCost:      types.MustMoney("5.00"),
		EffectiveDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		SourceRef:     "batch-1",
		CreatedAt:     time.Now().UTC(),
	}

	sql, args, err := r.appendQuery(rec).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO movement_records")
	assert.Contains(t, sql, "ON CONFLICT (product_id, source_ref, event_type) DO NOTHING")
	assert.Contains(t, sql, "$9")
	assert.Len(t, args, 9)
}

func TestMovementRepo_ListQuery(t *testing.T) {
	r := NewMovementRepo(nil)
	from := time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	productID := id.New()

	sql, args, err := r.listQuery(ledger.Filter{
		ProductID:  productID,
		EventTypes: []ledger.EventType{ledger.EventJobIssue, ledger.EventAdjustmentIn},
		FromDate:   &from,
		ToDate:     &to,
		Limit:      50,
		Offset:     10,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM movement_records")
	assert.Contains(t, sql, "product_id = $1")
	assert.Contains(t, sql, "event_type IN ($2,$3)")
	assert.Contains(t, sql, "effective_date >= $4")
	assert.Contains(t, sql, "effective_date <= $5")
	assert.Contains(t, sql, "ORDER BY effective_date, created_at, id")
	assert.Contains(t, sql, "LIMIT 50 OFFSET 10")

	require.Len(t, args, 5)
	assert.Equal(t, productID, args[0])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), args[3], "from date truncated to the day")
}

func TestMovementRepo_ListQueryUnfiltered(t *testing.T) {
	sql, args, err := NewMovementRepo(nil).listQuery(ledger.Filter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}
