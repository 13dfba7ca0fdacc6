package auth_test

import (
	"testing"

	"procureflow-api-server/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.True(t, auth.CheckPasswordHash("correct-horse-battery", hash))
	assert.False(t, auth.CheckPasswordHash("wrong-password", hash))
}

func TestGenerateJWTRoundTrip(t *testing.T) {
	tokenString, err := auth.GenerateJWT("stores@example.com", "Stores User", "stores")
	require.NoError(t, err)

	claims := &auth.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return auth.JwtSecret, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "stores@example.com", claims.Email)
	assert.Equal(t, "Stores User", claims.Name)
	assert.Equal(t, "stores", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}
