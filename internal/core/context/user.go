// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"slices"
)

// Roles understood by the ledger. Role lookup itself happens outside the ledger;
// these names only have to match what the identity provider puts into tokens.
const (
	RoleApprover    = "approver"
	RoleStorekeeper = "storekeeper"
	RoleAdmin       = "admin"
)

// UserContext contains the caller identity resolved by the identity collaborator.
type UserContext struct {
	UserID    string
	Email     string
	Roles     []string
	SessionID string
}

// CanApprove reports whether the identity holds an approval-capable role.
func (u *UserContext) CanApprove() bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, RoleApprover) || slices.Contains(u.Roles, RoleAdmin)
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}
