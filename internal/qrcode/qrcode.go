// Package qrcode renders ticket and payment payloads as scannable QR
// images. Encoding is deterministic: the same payload always produces
// byte-identical PNG output, so rendered tickets can be cached or diffed.
package qrcode

import (
	"errors"

	qr "github.com/skip2/go-qrcode"
)

// imageSize is the fixed edge length in pixels of every generated image.
const imageSize = 512

// ErrEmptyPayload is returned when there is nothing to encode.
var ErrEmptyPayload = errors.New("qrcode: empty payload")

// Encode renders the payload as a PNG QR image. The error-correction level
// is High so printed tickets survive partial occlusion or damage. There is
// no server-side decode: the scanning device reads the image optically and
// submits the decoded text back as the code.
func Encode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	return qr.Encode(payload, qr.High, imageSize)
}
