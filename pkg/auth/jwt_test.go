package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndParse(t *testing.T) {
	// Arrange
	svc, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)

	// Act
	token, err := svc.GenerateToken(42, "admin@example.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestJWTService_ParseRejectsWrongSecret(t *testing.T) {
	issuer, err := NewJWTService("issuer-secret", 1)
	require.NoError(t, err)
	verifier, err := NewJWTService("other-secret", 1)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(1, "user@example.com", "user")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err, "a token signed with another secret must not validate")
}

func TestJWTService_ParseRejectsGarbage(t *testing.T) {
	svc, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)

	_, err = svc.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 1)
	assert.Error(t, err)
}
