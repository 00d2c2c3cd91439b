package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_OrderedAndComplete(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	schema := all.String()

	for _, table := range []string{
		"products", "batches", "batch_allocations", "movement_records", "jobs",
		"job_tab_approvals", "sys_outbox", "sys_outbox_dlq", "sys_idempotency", "sys_sequences", "sys_audit",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	assert.Contains(t, schema, "UNIQUE (product_id, source_ref, event_type)")
	assert.Contains(t, schema, "UNIQUE (batch_id, job_id)")
}

func TestMigrations_MovementRecordsAppendOnly(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)

	var immutability string
	for _, m := range migrations {
		if m.Version == "0003_movement_immutability" {
			immutability = m.SQL
		}
	}
	require.NotEmpty(t, immutability, "immutability migration not embedded")

	assert.Contains(t, immutability, "BEFORE UPDATE OR DELETE ON movement_records")
	assert.Contains(t, immutability, "BEFORE TRUNCATE ON movement_records")
	assert.Contains(t, immutability, "RAISE EXCEPTION")
}
