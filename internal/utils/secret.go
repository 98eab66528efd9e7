// Package utils provides credential generation, secret hashing and scanner
// token helpers shared by the service and middleware layers.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyPrefix is the fixed literal prefix of every scanner API key. Keys
// without it are rejected before any storage lookup.
const APIKeyPrefix = "sk_scanner_"

// GenerateAPIKey returns a new public scanner identifier:
// the fixed prefix followed by 24 hex characters.
func GenerateAPIKey() (string, error) {
	suffix, err := RandomHex(12)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + suffix, nil
}

// GenerateSecretKey returns a new shared secret for a scanner. The raw
// value is shown to the administrator exactly once at registration; only
// its bcrypt hash is stored.
func GenerateSecretKey() (string, error) {
	return RandomHex(32)
}

// HashSecret returns the bcrypt hash of a scanner secret using the given cost.
func HashSecret(secret string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret safely compares a stored bcrypt hash against a submitted secret.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// MaskAPIKey returns a log-safe form of an API key: the prefix plus the
// first four characters of the random part. Secrets are never logged at all.
func MaskAPIKey(key string) string {
	rest := strings.TrimPrefix(key, APIKeyPrefix)
	if len(rest) > 4 {
		rest = rest[:4]
	}
	return APIKeyPrefix + rest + "****"
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
