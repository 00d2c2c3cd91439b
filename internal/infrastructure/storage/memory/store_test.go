package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/numerator"
	"partsledger/internal/domain/batch"
	"partsledger/internal/domain/events"
)

func TestRunInTransaction_RollbackUndoesEverything(t *testing.T) {
	s := New()
	batches := NewBatchRepo(s)
	gen := NewNumerator(s)
	ctx := context.Background()
	boom := errors.New("boom")

	b := &batch.Batch{ID: id.New(), ProductID: id.New(), Quantity: 5, RemainingQuantity: 5, Version: 1}
	require.NoError(t, batches.Create(ctx, b))

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := batches.GetForUpdate(ctx, b.ID)
		require.NoError(t, err)
		locked.RemainingQuantity = 0
		require.NoError(t, batches.Update(ctx, locked))

		_, err = gen.GetNextNumber(ctx, numerator.DefaultConfig("BT"), nil, b.CreatedAt)
		require.NoError(t, err)
		require.NoError(t, s.Publish(ctx, events.Event{Type: events.BatchApproved}))
		require.NoError(t, batches.Create(ctx, &batch.Batch{ID: id.New(), Version: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := batches.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.RemainingQuantity)
	assert.Equal(t, 1, got.Version)
	assert.Empty(t, s.Events())
	assert.Len(t, s.batchOrder, 1)
	assert.Zero(t, s.sequences["BT_0001"])
}

func TestRunInTransaction_Nested(t *testing.T) {
	s := New()
	calls := 0
	err := s.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	s := New()
	err := s.ReadOnly(context.Background(), func(ctx context.Context) error {
		return s.Publish(ctx, events.Event{})
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestBatchUpdate_StaleVersion(t *testing.T) {
	s := New()
	repo := NewBatchRepo(s)
	ctx := context.Background()

	b := &batch.Batch{ID: id.New(), Version: 1}
	require.NoError(t, repo.Create(ctx, b))

	a, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	stale, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, 2, a.Version)

	err = repo.Update(ctx, stale)
	assert.True(t, apperror.Is(err, apperror.CodeConflict))
}

func TestNumerator_Sequences(t *testing.T) {
	s := New()
	gen := NewNumerator(s)
	cfg := numerator.DefaultConfig("BT")
	period := batchPeriod()

	first, err := gen.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	second, err := gen.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, "BT-2026-00001", first)
	assert.Equal(t, "BT-2026-00002", second)
}

func batchPeriod() time.Time {
	return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)

	replay, err := s.AcquireKey(ctx, "k1", "u1", "POST /batches", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /batches", "h1")
	assert.True(t, apperror.Is(err, apperror.CodeIdempotency), "pending key is busy")

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /batches", "other")
	assert.True(t, apperror.Is(err, apperror.CodeIdempotency), "different body is a mismatch")

	require.NoError(t, s.CompleteKey(ctx, "k1", 201, "application/json", map[string]string{"id": "b1"}))

	replay, err = s.AcquireKey(ctx, "k1", "u1", "POST /batches", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"id":"b1"}`, string(replay.Body))
}

func TestIdempotencyStore_ExpiredKeyIsReacquired(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	require.NoError(t, s.FailKey(ctx, "k", 422, "", nil))

	now = now.Add(2 * time.Minute)
	replay, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)
}
