package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, nil, nil)

	token, err := handler.GenerateToken("discord|42", "alice")
	require.NoError(t, err)

	claims, err := handler.parse(token)
	require.NoError(t, err)
	assert.Equal(t, "discord|42", claims["sub"])
	assert.Equal(t, "alice", claims["name"])

	other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"}, nil, nil)
	_, err = other.parse(token)
	assert.Error(t, err)
}

func TestParse_RejectsNonHMAC(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, nil, nil)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = handler.parse(tokenString)
	assert.Error(t, err)
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(context.WithValue(context.Background(), UserIDKey, uint(7)))
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
}
