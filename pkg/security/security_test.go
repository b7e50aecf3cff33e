package security

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	secret := []byte("test-secret")
	claims := NewTokenClaims("tid", "u1", "admin", time.Hour)

	token, err := GenerateJWT(claims, secret)
	require.NoError(t, err)

	got, err := VerifyToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.GetUser())
	assert.Equal(t, "tid", got.ID)
	assert.Equal(t, "admin", got.UserName)
	assert.True(t, got.TTL() > 59*time.Minute)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(NewTokenClaims("tid", "u1", "admin", time.Hour), []byte("a"))
	require.NoError(t, err)

	_, err = VerifyToken(token, []byte("b"))
	assert.True(t, errors.Is(err, ErrInvalidJWT))
}

func TestVerifyRejectsExpired(t *testing.T) {
	claims := NewTokenClaims("tid", "u1", "admin", time.Hour)
	claims.ExpireTime = time.Now().Add(-time.Minute).Unix()

	// no exp claim at all
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"u": claims.User, "nbf": claims.NotBefore,
	}).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = VerifyToken(token, []byte("s"))
	assert.ErrorIs(t, err, ErrInvalidJWT)

	expired, err := GenerateJWT(claims, []byte("s"))
	require.NoError(t, err)
	_, err = VerifyToken(expired, []byte("s"))
	assert.ErrorIs(t, err, ErrInvalidJWT)
}

func TestGenerateRequiresKey(t *testing.T) {
	_, err := GenerateJWT(NewTokenClaims("tid", "u1", "admin", time.Hour), nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
}
