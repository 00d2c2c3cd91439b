// Package audit defines the audit trail written for approval decisions and job closures.
package audit

import (
	"context"
	"fmt"
	"time"

	"partsledger/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionDeactivate Action = "deactivate"
	ActionClose      Action = "close"
)

// Entry is one audit record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    map[string]any
	At         time.Time
}

// Recorder persists audit entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, entry Entry) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, entry Entry) error {
	return f(ctx, entry)
}

// Discard drops every entry.
var Discard Recorder = RecorderFunc(func(context.Context, Entry) error { return nil })

// Diff returns {"field": {"old": x, "new": y}} for every field that differs.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
