package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "partsledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences keyed upserts: args are (key, increment).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	key := args[0].(string)
	m.values[key] += args[1].(int64)
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("BT")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BT-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "BT-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_YearReset(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("BT")

	_, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "BT-2027-00001", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("BT")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "BT-2026-00001", num)
	assert.Equal(t, int64(10), q.values["BT_2026"])

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "BT-2026-00002", num)
	assert.Equal(t, 1, q.calls, "second number must come from the cached range")

	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "BT-2026-00011", num)
	assert.Equal(t, int64(20), q.values["BT_2026"])
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("BT"), nil, period)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BT_2026")
}

func TestGetNextNumber_NilService(t *testing.T) {
	var svc *Service
	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("BT"), nil, period)
	assert.Error(t, err)
}

func TestNewFromContext_ResolvesPerCall(t *testing.T) {
	outer := newMockQuerier()
	inner := newMockQuerier()
	type txKey struct{}

	svc := NewFromContext(func(ctx context.Context) Querier {
		if ctx.Value(txKey{}) != nil {
			return inner
		}
		return outer
	})

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("BT"), nil, period)
	require.NoError(t, err)
	_, err = svc.GetNextNumber(context.WithValue(context.Background(), txKey{}, true), corenumerator.DefaultConfig("BT"), nil, period)
	require.NoError(t, err)

	assert.Equal(t, 1, outer.calls)
	assert.Equal(t, 1, inner.calls)
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		reset string
		want  string
	}{
		{"year", "BT_2026"},
		{"month", "BT_2026_03"},
		{"never", "BT"},
	}
	for _, tt := range tests {
		t.Run(tt.reset, func(t *testing.T) {
			cfg := corenumerator.DefaultConfig("BT")
			cfg.ResetPeriod = tt.reset
			assert.Equal(t, tt.want, BuildKey(cfg, period))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	cfg := corenumerator.Config{Prefix: "BT", PadWidth: 3}
	assert.Equal(t, "BT-042", FormatNumber(cfg, period, 42))

	cfg.IncludeYear = true
	assert.Equal(t, "BT-2026-042", FormatNumber(cfg, period, 42))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("BT-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("BT-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
