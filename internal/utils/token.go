package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/venuehq/ticket-gate/internal/model"
)

// ErrInvalidToken is returned when a capability token fails signature or
// claim validation, including expiry.
var ErrInvalidToken = errors.New("invalid token")

// ScannerToken is a signed HS256 capability token together with its expiry.
// It is short-lived; a scanner authenticates once per session and presents
// the token on every validation call.
type ScannerToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ScannerClaims is the decoded content of a scanner capability token.
type ScannerClaims struct {
	ScannerID   string
	Role        model.ScannerRole
	Location    string
	Permissions []string
}

// NewScannerToken builds and signs an HS256 JWT for an authenticated
// scanner. The token embeds the credential id as subject plus the role,
// location and derived capability set. Verifiers must still re-check the
// credential's status at call time; the token alone is not proof the device
// is still ACTIVE.
func NewScannerToken(secret string, sc model.Scanner, ttl time.Duration) (ScannerToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":      sc.ID,
		"role":     string(sc.Role),
		"location": sc.Location,
		"perms":    sc.Role.Capabilities(),
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return ScannerToken{}, err
	}
	return ScannerToken{Token: signed, Exp: exp}, nil
}

// ParseScannerToken validates the signature and expiry of a capability
// token and returns its claims. Any failure is reported as ErrInvalidToken;
// callers must not leak parse details to the device.
func ParseScannerToken(secret, raw string) (ScannerClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return ScannerClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ScannerClaims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	location, _ := claims["location"].(string)
	if sub == "" || role == "" {
		return ScannerClaims{}, ErrInvalidToken
	}
	var perms []string
	if raw, ok := claims["perms"].([]interface{}); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				perms = append(perms, s)
			}
		}
	}
	return ScannerClaims{
		ScannerID:   sub,
		Role:        model.ScannerRole(role),
		Location:    location,
		Permissions: perms,
	}, nil
}
