package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldgraph-backend/internal/domain"
)

var testConfig = JWTConfig{SecretKey: "test-secret", Issuer: "worldgraph-backend"}

func TestValidateToken(t *testing.T) {
	validator, err := NewJWTValidator(testConfig)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		token, err := GenerateToken(testConfig, &UserContext{
			UserID:      "user:alice",
			DisplayName: "Alice",
			Role:        domain.RoleMod,
		}, time.Hour)
		require.NoError(t, err)

		user, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user:alice", user.UserID)
		assert.Equal(t, "Alice", user.DisplayName)
		assert.Equal(t, domain.RoleMod, user.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := GenerateToken(testConfig, &UserContext{UserID: "user:x", Role: domain.RoleUser}, -time.Minute)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(JWTConfig{SecretKey: "other", Issuer: testConfig.Issuer},
			&UserContext{UserID: "user:x", Role: domain.RoleUser}, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := GenerateToken(JWTConfig{SecretKey: testConfig.SecretKey, Issuer: "someone-else"},
			&UserContext{UserID: "user:x", Role: domain.RoleUser}, time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role falls back to USER", func(t *testing.T) {
		token, err := GenerateToken(testConfig, &UserContext{UserID: "user:x", Role: domain.Role("SUPERADMIN")}, time.Hour)
		require.NoError(t, err)

		user, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
	})
}

func TestNewJWTValidator(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}
