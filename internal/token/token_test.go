package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := Generate("req-1", 42, 7, 9, "wall-1", secret)
	require.NoError(t, err)

	claims, err := Verify(tok, secret, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "req-1", claims.RequestID)
	assert.Equal(t, 42, claims.BannerID)
	assert.Equal(t, 7, claims.CampaignID)
	assert.Equal(t, 9, claims.ViewerID)
	assert.Equal(t, "wall-1", claims.SlotName)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := Generate("req-1", 1, 1, 5, "rack-1", []byte("secret-a"))
	require.NoError(t, err)

	_, err = Verify(tok, []byte("secret-b"), time.Minute)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsTampering(t *testing.T) {
	secret := []byte("secret")
	tok, err := Generate("req-1", 1, 1, 5, "rack-1", secret)
	require.NoError(t, err)

	_, err = Verify("x"+tok, secret, time.Minute)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Verify("not-a-token", secret, time.Minute)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyExpiry(t *testing.T) {
	secret := []byte("secret")
	tok, err := Generate("req-1", 1, 1, 5, "rack-1", secret)
	require.NoError(t, err)

	_, err = Verify(tok, secret, -time.Second)
	assert.ErrorIs(t, err, ErrExpired)

	// ttl of zero disables expiry checking
	_, err = Verify(tok, secret, 0)
	assert.NoError(t, err)
}
