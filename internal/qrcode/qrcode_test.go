package qrcode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestEncode_ProducesPNG(t *testing.T) {
	img, err := Encode("TICKET_7_2024-06-15")
	require.NoError(t, err)
	require.NotEmpty(t, img)
	assert.True(t, bytes.HasPrefix(img, pngMagic), "output must be a PNG")
}

func TestEncode_Deterministic(t *testing.T) {
	a, err := Encode("https://gate.example.com/v1/validate?code=TICKET_7_2024-06-15")
	require.NoError(t, err)
	b, err := Encode("https://gate.example.com/v1/validate?code=TICKET_7_2024-06-15")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same payload must produce byte-identical output")
}

func TestEncode_DifferentPayloadsDiffer(t *testing.T) {
	a, err := Encode("TICKET_7_2024-06-15")
	require.NoError(t, err)
	b, err := Encode("TICKET_8_2024-06-15")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEncode_EmptyPayload(t *testing.T) {
	_, err := Encode("")
	require.ErrorIs(t, err, ErrEmptyPayload)
}
