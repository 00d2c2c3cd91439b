package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/app/apptest"
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/memory"
)

type countingObserver struct {
	mu           sync.Mutex
	appended     map[ledger.EventType]int
	deduplicated map[ledger.EventType]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		appended:     make(map[ledger.EventType]int),
		deduplicated: make(map[ledger.EventType]int),
	}
}

func (o *countingObserver) MovementAppended(e ledger.EventType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appended[e]++
}

func (o *countingObserver) MovementDeduplicated(e ledger.EventType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deduplicated[e]++
}

func TestAppend_Dedup(t *testing.T) {
	store := memory.New()
	obs := newCountingObserver()
	svc := ledger.NewService(memory.NewMovementRepo(store), obs)
	ctx := apptest.New(t).Ctx

	in := ledger.AppendInput{
		ProductID:     id.New(),
		EventType:     ledger.EventBatchReceipt,
		QuantityDelta: 10,
		UnitCost:      types.MustMoney("5.00"),
		EffectiveDate: apptest.Day("2026-02-01"),
		SourceRef:     "batch-1",
	}

	first, appended, err := svc.Append(ctx, in)
	require.NoError(t, err)
	assert.True(t, appended)
	assert.Equal(t, "storekeeper-1", first.CreatedBy)

	in.QuantityDelta = 99
	second, appended, err := svc.Append(ctx, in)
	require.NoError(t, err)
	assert.False(t, appended)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(10), second.QuantityDelta)

	in.EventType = ledger.EventAdjustmentIn
	_, appended, err = svc.Append(ctx, in)
	require.NoError(t, err)
	assert.True(t, appended, "same source with another event type is a different record")

	assert.Equal(t, 1, obs.appended[ledger.EventBatchReceipt])
	assert.Equal(t, 1, obs.deduplicated[ledger.EventBatchReceipt])
	assert.Equal(t, 1, obs.appended[ledger.EventAdjustmentIn])
}

func TestAppend_RollsBackWithTransaction(t *testing.T) {
	store := memory.New()
	svc := ledger.NewService(memory.NewMovementRepo(store), nil)
	productID := id.New()

	err := store.RunInTransaction(t.Context(), func(ctx context.Context) error {
		_, _, err := svc.Append(ctx, ledger.AppendInput{
			ProductID:     productID,
			EventType:     ledger.EventAdjustmentIn,
			QuantityDelta: 1,
			UnitCost:      types.Zero(),
			EffectiveDate: apptest.Day("2026-02-01"),
			SourceRef:     "x",
		})
		require.NoError(t, err)
		return apperror.NewConflict("abort")
	})
	require.Error(t, err)

	records, err := svc.History(t.Context(), productID, apptest.Day("2026-12-31"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAppend_Validation(t *testing.T) {
	svc := ledger.NewService(memory.NewMovementRepo(memory.New()), nil)

	_, _, err := svc.Append(t.Context(), ledger.AppendInput{
		ProductID:     id.New(),
		EventType:     ledger.EventJobIssue,
		QuantityDelta: 3,
		EffectiveDate: apptest.Day("2026-02-01"),
		SourceRef:     "x",
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestHistory_ReplayOrder(t *testing.T) {
	store := memory.New()
	svc := ledger.NewService(memory.NewMovementRepo(store), nil)
	productID := id.New()

	for _, tc := range []struct {
		ref  string
		date string
	}{
		{"late", "2026-02-05"},
		{"early", "2026-02-01"},
		{"middle", "2026-02-03"},
	} {
		_, _, err := svc.Append(t.Context(), ledger.AppendInput{
			ProductID:     productID,
			EventType:     ledger.EventAdjustmentIn,
			QuantityDelta: 1,
			UnitCost:      types.Zero(),
			EffectiveDate: apptest.Day(tc.date),
			SourceRef:     tc.ref,
		})
		require.NoError(t, err)
	}

	records, err := svc.History(t.Context(), productID, apptest.Day("2026-02-04"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "early", records[0].SourceRef)
	assert.Equal(t, "middle", records[1].SourceRef)

	_, err = svc.History(t.Context(), id.Nil(), apptest.Day("2026-02-04"))
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}
