package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/service"
)

// ScannerHandler exposes scanner authentication and administration.
type ScannerHandler struct {
	Auth *service.ScannerAuth
}

// NewScannerHandler returns a ScannerHandler.
func NewScannerHandler(auth *service.ScannerAuth) *ScannerHandler {
	return &ScannerHandler{Auth: auth}
}

// ----- DTOs -----

type scannerAuthReq struct {
	APIKey    string `json:"apiKey"`
	SecretKey string `json:"secretKey"`
}

type scannerPart struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type scannerAuthResp struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	Scanner     scannerPart `json:"scanner"`
	Permissions []string    `json:"permissions"`
}

type registerScannerReq struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Role     string `json:"role"` // VALIDATOR | MANAGER | ADMIN, default VALIDATOR
}

type registerScannerResp struct {
	Scanner   scannerPart `json:"scanner"`
	APIKey    string      `json:"apiKey"`
	SecretKey string      `json:"secretKey"` // shown exactly once
}

type updateScannerReq struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}

func toScannerPart(s model.Scanner) scannerPart {
	return scannerPart{
		ID:       s.ID,
		Name:     s.Name,
		Location: s.Location,
		Role:     string(s.Role),
		Status:   string(s.Status),
	}
}

// Authenticate exchanges (apiKey, secretKey) for a capability token.
func (h *ScannerHandler) Authenticate(c echo.Context) error {
	var req scannerAuthReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.APIKey == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "apiKey/secretKey required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Authenticate(ctx, req.APIKey, req.SecretKey, c.RealIP())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, scannerAuthResp{
		AccessToken: res.Token,
		ExpiresAt:   res.ExpiresAt,
		Scanner:     toScannerPart(res.Scanner),
		Permissions: res.Permissions,
	})
}

// Register creates a new scanner credential. Requires the manage_scanners
// capability.
func (h *ScannerHandler) Register(c echo.Context) error {
	var req registerScannerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	role := model.ScannerRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role != "" && !model.ValidRole(string(role)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Auth.Register(ctx, req.Name, strings.TrimSpace(req.Location), role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, registerScannerResp{
		Scanner:   toScannerPart(reg.Scanner),
		APIKey:    reg.Scanner.APIKey,
		SecretKey: reg.SecretKey,
	})
}

// List returns all registered scanners.
func (h *ScannerHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scanners, err := h.Auth.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	parts := make([]scannerPart, 0, len(scanners))
	for _, s := range scanners {
		parts = append(parts, toScannerPart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"scanners": parts})
}

// Update changes a scanner's role and status.
func (h *ScannerHandler) Update(c echo.Context) error {
	var req updateScannerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.ScannerRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	status := model.ScannerStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !model.ValidRole(string(role)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	switch status {
	case model.ScannerActive, model.ScannerInactive, model.ScannerSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sc, err := h.Auth.UpdateRoleStatus(ctx, c.Param("id"), role, status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toScannerPart(*sc))
}

// Delete removes a scanner credential.
func (h *ScannerHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Delete(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
