package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/medtracker/pkg/helpers"
	"github.com/oksasatya/medtracker/pkg/response"
)

// SessionValidator checks that a token's session is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, claims *helpers.Claims) error
}

// AdminChecker confirms the caller currently holds the admin flag.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID string) error
}

// Auth validates the bearer token and its Redis-backed session.
// It sets userID, userEmail, isAdmin and sessionID in the Gin context on success.
func Auth(jwt *helpers.JWTManager, sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "no token provided", nil)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		if sessions != nil {
			if err := sessions.ValidateSession(c.Request.Context(), claims); err != nil {
				response.Abort(c, http.StatusUnauthorized, "session is no longer valid", nil)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Set(CtxIsAdminKey, claims.IsAdmin)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// RequireAdmin must run after Auth. The token claim alone is not trusted;
// the flag is re-read through checker.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdminKey) {
			response.Abort(c, http.StatusForbidden, "admin access required", nil)
			return
		}
		if err := checker.RequireAdmin(c.Request.Context(), UserID(c)); err != nil {
			response.Abort(c, http.StatusForbidden, "admin access required", nil)
			return
		}
		c.Next()
	}
}
