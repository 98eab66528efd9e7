package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	k1, err := GenerateAPIKey()
	require.NoError(t, err)
	k2, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(k1, APIKeyPrefix))
	assert.Len(t, k1, len(APIKeyPrefix)+24)
	assert.NotEqual(t, k1, k2)
}

func TestSecretHashing(t *testing.T) {
	secret, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	hash, err := HashSecret(secret, bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, hash, secret, "hash must not embed the raw secret")

	assert.True(t, VerifySecret(hash, secret))
	assert.False(t, VerifySecret(hash, secret+"x"))
	assert.False(t, VerifySecret(hash, ""))
}

func TestMaskAPIKey(t *testing.T) {
	masked := MaskAPIKey(APIKeyPrefix + "abcdef123456")
	assert.Equal(t, APIKeyPrefix+"abcd****", masked)
	assert.NotContains(t, masked, "ef123456")

	// Keys without the prefix still mask down to a few characters.
	assert.Equal(t, APIKeyPrefix+"shor****", MaskAPIKey("short"))
}
