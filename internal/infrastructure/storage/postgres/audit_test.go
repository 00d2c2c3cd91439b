package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/id"
	"partsledger/internal/domain/audit"
	"partsledger/internal/domain/events"
)

func TestAuditService_SmallChangesStayPlain(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)

	entry := audit.Entry{
		EntityType: "batch",
		EntityID:   id.New(),
		Action:     audit.ActionApprove,
		UserID:     "inspector-1",
		Changes:    map[string]any{"approval_status": map[string]any{"old": "pending", "new": "approved"}},
	}

	row, err := s.encode(entry)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.Nil(t, row.ChangesCompressed)
	assert.False(t, row.CreatedAt.IsZero())

	back, err := s.decode(row)
	require.NoError(t, err)
	assert.Equal(t, entry.EntityID, back.EntityID)
	assert.Equal(t, audit.ActionApprove, back.Action)
	assert.Equal(t, "approved", back.Changes["approval_status"].(map[string]any)["new"])
}

func TestAuditService_LargeChangesAreCompressed(t *testing.T) {
	s, err := NewAuditService(nil)
	require.NoError(t, err)
	s.compressThreshold = 64

	entry := audit.Entry{
		EntityType: "job",
		EntityID:   id.New(),
		Action:     audit.ActionClose,
		Changes:    map[string]any{"note": strings.Repeat("x", 1024)},
	}

	row, err := s.encode(entry)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.Less(t, len(row.ChangesCompressed), 1024)

	back, err := s.decode(row)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 1024), back.Changes["note"])
}

func TestDecodeEvent(t *testing.T) {
	batchID := id.New()
	ev := events.New(events.BatchApproved, events.AggregateBatch, batchID, map[string]any{"quantity": 10})

	payload := []byte(`{"type":"batch.approved","aggregateType":"batch","aggregateId":"` + batchID.String() + `","payload":{"quantity":10},"occurredAt":"` + ev.OccurredAt.Format("2006-01-02T15:04:05.999999999Z07:00") + `"}`)
	got, err := DecodeEvent(&OutboxMessage{ID: id.New(), Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, events.BatchApproved, got.Type)
	assert.Equal(t, batchID, got.AggregateID)
	assert.EqualValues(t, 10, got.Payload["quantity"])

	_, err = DecodeEvent(&OutboxMessage{ID: id.New(), Payload: []byte("{")})
	assert.Error(t, err)
}
