package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/response"
	"github.com/sanu276140-eng/examsk24/internal/session"
)

// RequireAdminRecord re-checks the caller's authorization record on every
// request. A token alone is not enough: revoking the admins record locks the
// holder out immediately, and any lookup failure denies (fail closed).
func RequireAdminRecord(az session.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		ident := claims.Identity()
		if !az.IsAdmin(c.Request.Context(), &ident) {
			response.AbortFail(c, http.StatusForbidden, response.ErrAccessDenied)
			return
		}

		c.Next()
	}
}
