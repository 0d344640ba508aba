package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/auth"
)

const principalKey = "principal"

// Principal is the authenticated identity attached to the request context by
// RequireAuth.
type Principal struct {
	UserID uint
	Email  string
	Role   string
}

// CurrentPrincipal returns the principal attached by the authentication gate.
func CurrentPrincipal(ctx *fiber.Ctx) (Principal, bool) {
	principal, ok := ctx.Locals(principalKey).(Principal)
	return principal, ok
}

// RequireAuth validates the bearer token, rejects blacklisted tokens and
// attaches the resolved principal. Public routes simply do not install this
// middleware. MFA-pending tokens are not accepted here; they only open the
// MFA verification endpoint.
func RequireAuth(authService *auth.AuthService, auditLog *audit.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := auth.NormalizeBearerToken(ctx.Get(fiber.HeaderAuthorization))
		if token == "" {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, 0, map[string]interface{}{
				"reason": "jwt_validation_failed",
			})
			return auth.ErrUnauthorized
		}

		claims, err := authService.Tokens().Verify(token)
		if err != nil || claims.MFAPending {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, 0, map[string]interface{}{
				"reason": "jwt_validation_failed",
			})
			return auth.ErrUnauthorized
		}

		principal := Principal{
			UserID: claims.UserID(),
			Email:  claims.Email,
			Role:   claims.Role,
		}
		if principal.UserID == 0 {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, 0, map[string]interface{}{
				"reason": "no_user_in_req",
			})
			return auth.ErrUnauthorized
		}

		blacklisted, err := authService.IsTokenBlacklisted(ctx.Context(), token)
		if err != nil {
			return err
		}
		if blacklisted {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, principal.UserID, map[string]interface{}{
				"reason": "blacklisted_token",
			})
			return auth.ErrSessionExpired
		}

		ctx.Locals(principalKey, principal)
		return ctx.Next()
	}
}

// RequireMFAPending admits only the short-lived token issued between password
// login and MFA verification.
func RequireMFAPending(authService *auth.AuthService, auditLog *audit.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := auth.NormalizeBearerToken(ctx.Get(fiber.HeaderAuthorization))
		claims, err := authService.Tokens().Verify(token)
		if err != nil || !claims.MFAPending {
			auditLog.Log(ctx.Context(), audit.EventTypeUnauthorizedAccess, 0, map[string]interface{}{
				"reason": "jwt_validation_failed",
			})
			return auth.ErrUnauthorized
		}
		ctx.Locals(principalKey, Principal{
			UserID: claims.UserID(),
			Email:  claims.Email,
			Role:   claims.Role,
		})
		return ctx.Next()
	}
}
