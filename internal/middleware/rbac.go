package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/response"
)

// RequirePermission lets the request through only when the admin token grants perm.
func RequirePermission(perm model.Permission) gin.HandlerFunc {
	return RequireAnyPermission(perm)
}

// RequireAnyPermission lets the request through when the token grants at least
// one of perms. A denial lists what was required so the UI can explain it.
func RequireAnyPermission(perms ...model.Permission) gin.HandlerFunc {
	required := make([]string, len(perms))
	for i, p := range perms {
		required[i] = string(p)
	}

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, code := range required {
			if claims.HasPermission(code) {
				c.Next()
				return
			}
		}

		response.AbortFailWithDetails(c, http.StatusForbidden, response.ErrPermissionDenied,
			gin.H{"required_any": required})
	}
}
