package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/jadwal-backend/internal/config"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	auth := NewAuthService(&config.Config{JWTSecret: "s3cret"})
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		TokenType:        TokenTypeAdmin,
		UserID:           7,
		Permissions:      []string{"schedules:write"},
	}

	got, err := auth.ValidateToken(sign(t, "s3cret", jwt.SigningMethodHS256, claims))
	require.NoError(t, err)
	assert.Equal(t, 7, got.UserID)
	assert.True(t, got.HasPermission("schedules:write"))
	assert.False(t, got.HasPermission("sections:write"))
}

func TestValidateTokenRejects(t *testing.T) {
	auth := NewAuthService(&config.Config{JWTSecret: "s3cret"})

	_, err := auth.ValidateToken(sign(t, "other", jwt.SigningMethodHS256, &Claims{TokenType: TokenTypeAdmin}))
	assert.Error(t, err, "wrong secret")

	expired := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		TokenType:        TokenTypeAdmin,
	}
	_, err = auth.ValidateToken(sign(t, "s3cret", jwt.SigningMethodHS256, expired))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = auth.ValidateToken("not-a-token")
	assert.Error(t, err)
}
