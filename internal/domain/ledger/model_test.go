package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMovementRecord_Validate(t *testing.T) {
	valid := MovementRecord{
		ProductID:     id.New(),
		EventType:     EventBatchReceipt,
		QuantityDelta: 10,
		UnitCost:      types.MustMoney("5.00"),
		EffectiveDate: day("2026-01-10"),
		SourceRef:     "b-1",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *MovementRecord)
	}{
		{"missing product", func(r *MovementRecord) { r.ProductID = id.Nil() }},
		{"unknown event type", func(r *MovementRecord) { r.EventType = "transfer" }},
		{"missing source", func(r *MovementRecord) { r.SourceRef = "" }},
		{"missing date", func(r *MovementRecord) { r.EffectiveDate = time.Time{} }},
		{"negative cost", func(r *MovementRecord) { r.UnitCost = types.MustMoney("-1") }},
		{"negative receipt", func(r *MovementRecord) { r.QuantityDelta = -1 }},
		{"positive issue", func(r *MovementRecord) { r.EventType = EventJobIssue }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.CodeValidation))
		})
	}
}

func TestSortForReplay(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	first, second := id.New(), id.New()

	records := []MovementRecord{
		{ID: second, EffectiveDate: day("2026-01-05"), CreatedAt: created, SourceRef: "c"},
		{ID: id.New(), EffectiveDate: day("2026-01-06"), CreatedAt: created.Add(-time.Hour), SourceRef: "d"},
		{ID: first, EffectiveDate: day("2026-01-05"), CreatedAt: created, SourceRef: "b"},
		{ID: id.New(), EffectiveDate: day("2026-01-05"), CreatedAt: created.Add(-time.Minute), SourceRef: "a"},
	}

	SortForReplay(records)

	var refs []string
	for _, r := range records {
		refs = append(refs, r.SourceRef)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, refs)
}

func TestReplay(t *testing.T) {
	records := []MovementRecord{
		{EventType: EventOpeningBalance, QuantityDelta: 100, UnitCost: types.MustMoney("1"), EffectiveDate: day("2026-01-01")},
		{EventType: EventBatchReceipt, QuantityDelta: 10, UnitCost: types.MustMoney("5.00"), EffectiveDate: day("2026-01-05")},
		{EventType: EventJobIssue, QuantityDelta: -4, UnitCost: types.MustMoney("5.00"), EffectiveDate: day("2026-01-07")},
		{EventType: EventAdjustmentIn, QuantityDelta: 4, UnitCost: types.MustMoney("5.00"), EffectiveDate: day("2026-01-09")},
	}

	all := Replay(records, time.Time{})
	assert.Equal(t, int64(10), all.Quantity)
	assert.True(t, types.MustMoney("50").Equal(all.Value))

	upTo := Replay(records, day("2026-01-07").Add(23*time.Hour))
	assert.Equal(t, int64(6), upTo.Quantity)
	assert.True(t, types.MustMoney("30").Equal(upTo.Value))

	before := Replay(records, day("2026-01-04"))
	assert.Equal(t, int64(0), before.Quantity)
}

func TestFilter(t *testing.T) {
	p := id.New()
	from, to := day("2026-01-02"), day("2026-01-03")
	f := Filter{ProductID: p, EventTypes: []EventType{EventJobIssue}, FromDate: &from, ToDate: &to}

	assert.True(t, f.Matches(MovementRecord{ProductID: p, EventType: EventJobIssue, EffectiveDate: day("2026-01-03")}))
	assert.False(t, f.Matches(MovementRecord{ProductID: id.New(), EventType: EventJobIssue, EffectiveDate: day("2026-01-03")}))
	assert.False(t, f.Matches(MovementRecord{ProductID: p, EventType: EventBatchReceipt, EffectiveDate: day("2026-01-03")}))
	assert.False(t, f.Matches(MovementRecord{ProductID: p, EventType: EventJobIssue, EffectiveDate: day("2026-01-04")}))

	records := make([]MovementRecord, 5)
	assert.Len(t, Filter{Offset: 1, Limit: 2}.Page(records), 2)
	assert.Len(t, Filter{Offset: 4, Limit: 2}.Page(records), 1)
	assert.Empty(t, Filter{Offset: 9}.Page(records))
	assert.Len(t, Filter{}.Page(records), 5)
}
