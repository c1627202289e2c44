package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// RequireAdminJWT validates an admin JWT from the Authorization header.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		admit(c, authService, bearerToken(c.GetHeader("Authorization")))
	}
}

// RequireAdminWSAuth validates an admin JWT from the query param ?token=...
// Browsers cannot set headers on a WebSocket upgrade.
func RequireAdminWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		admit(c, authService, c.Query("token"))
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// admit stores the claims of an admin token on the context or aborts.
func admit(c *gin.Context, authService *service.AuthService, tokenStr string) {
	if tokenStr == "" {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	claims, err := authService.ValidateToken(tokenStr)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
		return
	case err != nil:
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	if claims.TokenType != service.TokenTypeAdmin {
		response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
		return
	}

	c.Set(ContextKeyClaims, claims)
	c.Next()
}

// bearerToken returns the token of a "Bearer <token>" header, or "".
func bearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
