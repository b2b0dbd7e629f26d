package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-bytes!!"

func TestTokenRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenExpired(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateWithDuration("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenWrongSecret(t *testing.T) {
	svc1, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	svc2, err := NewTokenService("a-completely-different-secret-key", time.Hour)
	require.NoError(t, err)

	token, err := svc1.Generate("user-123")
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.Error(t, err)
}

func TestTokenTampered(t *testing.T) {
	svc, err := NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := svc.Generate("user-123")
	require.NoError(t, err)

	_, err = svc.Validate(token[:len(token)-2] + "xx")
	assert.Error(t, err)

	_, err = svc.Validate("not-a-token-at-all")
	assert.Error(t, err)
}

func TestNewTokenServiceRejectsWeakConfig(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err, "secret too short")

	_, err = NewTokenService(testSecret, 0)
	assert.Error(t, err, "non-positive TTL")
}
