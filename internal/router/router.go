// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/venuehq/ticket-gate/internal/config"
	"github.com/venuehq/ticket-gate/internal/handler"
	"github.com/venuehq/ticket-gate/internal/middleware"
	"github.com/venuehq/ticket-gate/internal/model"
)

// RegisterOps registers the operational endpoints: health check and
// prometheus metrics.
func RegisterOps(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterScanner registers scanner authentication, validation and
// administration routes. The auth and validate endpoints are the gate's hot
// path and sit behind the redis rate limiter; administration requires the
// manage_scanners capability.
func RegisterScanner(e *echo.Echo, sh *handler.ScannerHandler, vh *handler.ValidationHandler, verifier middleware.TokenVerifier, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(rlCfg, rdb)

	// Credential exchange: no token yet.
	e.POST("/v1/scanners/auth", sh.Authenticate, limit)

	// Capability-light status check: raw code + api key, no token exchange.
	// Non-authoritative for redemption counting.
	e.POST("/v1/validate/check", vh.Check, limit)

	// Authoritative redemption path.
	v := e.Group("/v1")
	v.Use(limit)
	v.Use(middleware.ScannerAuth(verifier))
	v.POST("/validate", vh.Validate, middleware.RequireCapability(model.CapValidateTickets))

	// Scanner administration, restricted to ADMIN-role devices.
	admin := e.Group("/v1/scanners")
	admin.Use(middleware.ScannerAuth(verifier))
	admin.Use(middleware.RequireCapability(model.CapManageScanners))
	admin.POST("", sh.Register)
	admin.GET("", sh.List)
	admin.PATCH("/:id", sh.Update)
	admin.DELETE("/:id", sh.Delete)
}

// RegisterPurchaser registers the purchaser-side ticket and payment routes.
// Purchaser identity arrives via the X-User-Id header injected by the
// platform gateway. The payment transition endpoints are not purchaser
// surface: approve/reject authenticate the gateway with a shared secret
// header and refund requires an ADMIN-capability token.
func RegisterPurchaser(e *echo.Echo, th *handler.TicketHandler, ph *handler.PaymentHandler, verifier middleware.TokenVerifier, webhookSecret string) {
	t := e.Group("/v1/tickets")
	t.POST("", th.Purchase)
	t.GET("", th.List)
	t.GET("/:id", th.Get)
	t.GET("/:id/qrcode", th.QRImage)
	t.POST("/:id/transfer", th.Transfer)
	t.POST("/:id/cancel", th.Cancel)

	p := e.Group("/v1/payments")
	p.POST("", ph.Create)
	p.GET("", ph.List)
	p.GET("/:id/qrcode", ph.PixQRImage)

	// Gateway webhook surface, authenticated by the shared secret.
	hook := e.Group("/v1/payments", middleware.RequireWebhookSecret(webhookSecret))
	hook.POST("/:id/approve", ph.Approve)
	hook.POST("/:id/reject", ph.Reject)

	// Refund is an administrative action.
	refund := e.Group("/v1/payments",
		middleware.ScannerAuth(verifier),
		middleware.RequireCapability(model.CapManageScanners))
	refund.POST("/:id/refund", ph.Refund)
}
