package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(&JWTConfig{
		Secret:      "test-secret-key-for-testing",
		TokenExpiry: time.Hour,
		Issuer:      "vestire-test",
	})
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	m := newTestManager()

	token, expiresAt, err := m.GenerateToken("ops@vestire.test", RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@vestire.test", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "vestire-test", claims.Issuer)
}

func TestJWTManager_RejectsOtherSecret(t *testing.T) {
	token, _, err := newTestManager().GenerateToken("ops", RoleAdmin)
	require.NoError(t, err)

	other := NewJWTManager(&JWTConfig{Secret: "different", Issuer: "vestire-test"})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager(&JWTConfig{Secret: "s", TokenExpiry: -time.Minute, Issuer: "vestire-test"})
	token, _, err := m.GenerateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_MissingSecret(t *testing.T) {
	m := NewJWTManager(&JWTConfig{})

	_, _, err := m.GenerateToken("ops", RoleAdmin)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = m.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
