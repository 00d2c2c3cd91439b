package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"approval_status": "pending", "remaining": 10, "gone": true}
	newState := map[string]any{"approval_status": "approved", "remaining": 10, "approved_by": "insp-1"}

	changes := Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": "pending", "new": "approved"}, changes["approval_status"])
	assert.Equal(t, map[string]any{"old": nil, "new": "insp-1"}, changes["approved_by"])
	assert.Equal(t, map[string]any{"old": true, "new": nil}, changes["gone"])
	assert.NotContains(t, changes, "remaining")
}
