package middleware

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/apperror"
	appctx "partsledger/internal/core/context"
)

// RequireApprover admits callers allowed to decide batches and approve job tabs.
// Admins pass.
func RequireApprover() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		if !user.CanApprove() {
			_ = c.Error(
				apperror.NewForbidden("approver role required").
					WithDetail("required_roles", []string{appctx.RoleApprover, appctx.RoleAdmin}),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
