package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_GenerateAndVerify(t *testing.T) {
	j := NewJWT([]byte("test-secret"), 7*24*time.Hour)

	token, err := j.GenerateToken("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := j.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWT_VerifyExpiredToken(t *testing.T) {
	j := NewJWT([]byte("test-secret"), -time.Minute)

	token, err := j.GenerateToken("user-123")
	require.NoError(t, err)

	_, err = j.VerifyToken(token)
	assert.Error(t, err)
}

func TestJWT_VerifyWrongKey(t *testing.T) {
	issuer := NewJWT([]byte("issuer-secret"), time.Hour)
	verifier := NewJWT([]byte("other-secret"), time.Hour)

	token, err := issuer.GenerateToken("user-123")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestJWT_VerifyMalformedToken(t *testing.T) {
	j := NewJWT([]byte("test-secret"), time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := j.VerifyToken(tok)
		assert.Error(t, err, "token %q should not verify", tok)
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}
