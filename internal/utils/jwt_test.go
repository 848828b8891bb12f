package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_ValidForOneDay(t *testing.T) {
	issued := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tok, err := SignJWT("s3cret", "user-1", "worker", 24*time.Hour, issued)
	require.NoError(t, err)

	claims, err := ParseJWT("s3cret", tok, issued.Add(24*time.Hour-time.Second))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "worker", claims.Role)

	_, err = ParseJWT("s3cret", tok, issued.Add(24*time.Hour+time.Second))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := SignJWT("s3cret", "user-1", "user", time.Hour, now)
	require.NoError(t, err)

	_, err = ParseJWT("other", tok, now)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	raw, err := tok.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = ParseJWT("s3cret", raw, now)
	assert.Error(t, err)
}
