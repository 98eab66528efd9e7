// Package middleware provides shared request processing for handlers:
// scanner token authentication, capability enforcement and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuehq/ticket-gate/internal/model"
)

// Context keys populated by ScannerAuth.
const (
	CtxScannerID   = "scanner_id"
	CtxScannerRole = "scanner_role"
	CtxPermissions = "permissions"
)

// TokenVerifier validates a capability token and re-resolves the credential
// behind it, rejecting devices that are no longer ACTIVE.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*model.Scanner, []string, error)
}

// ScannerAuth returns a middleware that validates a Bearer capability token
// and injects the scanner's identity, role and capability set into the
// request context. The verifier re-checks the credential's status on every
// call, so revoking a device takes effect immediately.
func ScannerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sc, perms, err := verifier.VerifyToken(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxScannerID, sc.ID)
			c.Set(CtxScannerRole, string(sc.Role))
			c.Set(CtxPermissions, perms)
			return next(c)
		}
	}
}

// RequireCapability returns a middleware that enforces that the
// authenticated scanner holds the named capability. It assumes ScannerAuth
// ran earlier in the chain.
func RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, ok := c.Get(CtxPermissions).([]string)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			for _, p := range perms {
				if p == capability {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}

// ScannerID returns the authenticated scanner id from context, or "".
func ScannerID(c echo.Context) string {
	if v, ok := c.Get(CtxScannerID).(string); ok {
		return v
	}
	return ""
}
