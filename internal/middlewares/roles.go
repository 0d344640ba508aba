package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/auth"
)

// RequireRoles denies the request unless the authenticated principal's role
// is in the required set. Must be installed after RequireAuth.
func RequireRoles(auditLog *audit.Logger, roles ...string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(ctx)
		if !ok || principal.Role == "" {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, principal.UserID, map[string]interface{}{
				"reason": "rbac_denied",
			})
			return auth.ErrForbidden
		}
		for _, role := range roles {
			if principal.Role == role {
				return ctx.Next()
			}
		}
		auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, principal.UserID, map[string]interface{}{
			"reason":        "forbidden_role",
			"userRole":      principal.Role,
			"requiredRoles": roles,
		})
		return auth.ErrForbidden
	}
}
