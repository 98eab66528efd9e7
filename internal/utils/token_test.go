package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehq/ticket-gate/internal/model"
)

func TestScannerToken_RoundTrip(t *testing.T) {
	sc := model.Scanner{
		ID:       "scanner-1",
		Location: "Gate A",
		Role:     model.RoleManager,
	}

	tok, err := NewScannerToken("secret", sc, 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseScannerToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "scanner-1", claims.ScannerID)
	assert.Equal(t, model.RoleManager, claims.Role)
	assert.Equal(t, "Gate A", claims.Location)
	assert.Equal(t, []string{model.CapValidateTickets, model.CapCheckInTickets}, claims.Permissions)
}

func TestScannerToken_WrongSecret(t *testing.T) {
	tok, err := NewScannerToken("secret", model.Scanner{ID: "s1", Role: model.RoleValidator}, time.Minute)
	require.NoError(t, err)

	_, err = ParseScannerToken("other-secret", tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScannerToken_Expired(t *testing.T) {
	tok, err := NewScannerToken("secret", model.Scanner{ID: "s1", Role: model.RoleValidator}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseScannerToken("secret", tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestScannerToken_Garbage(t *testing.T) {
	_, err := ParseScannerToken("secret", "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
