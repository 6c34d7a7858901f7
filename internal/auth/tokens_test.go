package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *TokenCodec {
	return NewTokenCodec("access-secret", "refresh-secret", 0, 0)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.MintAccessToken(AccessClaims{
		Role:             "user",
		Email:            "alice@example.com",
		RegisteredClaims: subjectClaims("user-1"),
	})
	require.NoError(t, err)

	claims, err := codec.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, expiresAt, err := codec.MintRefreshToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTokenTTL), expiresAt, time.Minute)

	claims, err := codec.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec()

	access, err := codec.MintAccessToken(AccessClaims{RegisteredClaims: subjectClaims("user-1")})
	require.NoError(t, err)
	refresh, _, err := codec.MintRefreshToken("user-1")
	require.NoError(t, err)

	// An access token does not verify as a refresh token and vice versa.
	_, err = codec.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = codec.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	codec := newTestCodec()
	other := NewTokenCodec("other-access", "other-refresh", 0, 0)

	token, err := codec.MintAccessToken(AccessClaims{RegisteredClaims: subjectClaims("user-1")})
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	codec := NewTokenCodec("access-secret", "refresh-secret", -time.Minute, 0)

	token, err := codec.MintAccessToken(AccessClaims{RegisteredClaims: subjectClaims("user-1")})
	require.NoError(t, err)

	_, err = codec.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyGarbage(t *testing.T) {
	codec := newTestCodec()

	_, err := codec.VerifyAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
