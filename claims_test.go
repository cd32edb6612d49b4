package positions

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{
		"sub":      "7",
		"username": "alice",
		"iat":      exp.Add(-2 * time.Hour).Unix(),
		"exp":      exp.Unix(),
	})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "7", info.Subject)
	assert.Equal(t, "alice", info.Username)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, exp.Equal(*info.ExpiresAt))
	require.NotNil(t, info.IssuedAt)
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Second)))
}

func TestInspectToken_NoExpiry(t *testing.T) {
	t.Parallel()

	info, err := InspectToken(signedToken(t, jwt.MapClaims{"sub": "1"}))
	require.NoError(t, err)
	assert.Nil(t, info.ExpiresAt)
	assert.False(t, info.Expired(time.Now()))
}

func TestInspectToken_Invalid(t *testing.T) {
	t.Parallel()

	_, err := InspectToken("")
	assert.Error(t, err)

	_, err = InspectToken("not-a-jwt")
	assert.Error(t, err)
}
