package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// WebhookSecretHeader carries the shared secret the payment gateway sends
// with every webhook call.
const WebhookSecretHeader = "X-Webhook-Secret"

// RequireWebhookSecret returns a middleware that authenticates gateway
// webhook calls with a shared secret header. An empty configured secret
// closes the surface entirely rather than leaving it open. The comparison
// is constant-time.
func RequireWebhookSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "webhooks not configured"})
			}
			got := c.Request().Header.Get(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook secret"})
			}
			return next(c)
		}
	}
}
