package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/venuehq/ticket-gate/internal/middleware"
	"github.com/venuehq/ticket-gate/internal/service"
)

// ValidationHandler exposes the two validation entry points: the
// authenticated redemption path and the capability-light status check.
type ValidationHandler struct {
	Validation *service.Validation
}

// NewValidationHandler returns a ValidationHandler.
func NewValidationHandler(v *service.Validation) *ValidationHandler {
	return &ValidationHandler{Validation: v}
}

type validateReq struct {
	Code string `json:"code"`
}

type checkReq struct {
	Code   string `json:"code"`
	APIKey string `json:"apiKey"`
}

// Validate redeems a scanned code. The scanner identity comes from the
// capability token; this is the authoritative at-most-once redemption
// point. The verdict is returned with HTTP 200 whether or not the ticket
// was accepted — a failed scan is an expected outcome, not an error.
func (h *ValidationHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	verdict, err := h.Validation.Validate(c.Request().Context(), req.Code, middleware.ScannerID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}

// Check answers a status query for legacy integrations that submit a raw
// code plus a device API key. It never redeems the ticket.
func (h *ValidationHandler) Check(c echo.Context) error {
	var req checkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" || req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/apiKey required"})
	}

	verdict, err := h.Validation.Check(c.Request().Context(), req.Code, req.APIKey, c.RealIP())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}
