package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/venuehq/ticket-gate/internal/service"
)

// TicketHandler exposes the purchaser-side ticket lifecycle: purchase,
// listing, transfer, cancellation and the printable QR image.
type TicketHandler struct {
	Tickets *service.TicketService
}

// NewTicketHandler returns a TicketHandler.
func NewTicketHandler(t *service.TicketService) *TicketHandler {
	return &TicketHandler{Tickets: t}
}

type purchaseReq struct {
	EventID       string          `json:"event_id"`
	CategoryID    string          `json:"category_id"`
	OwnerName     string          `json:"owner_name"`
	OwnerEmail    string          `json:"owner_email"`
	Price         decimal.Decimal `json:"price"`
	EventStartsAt time.Time       `json:"event_starts_at"`
	Quantity      int             `json:"quantity"`
}

type transferReq struct {
	ToUserID string `json:"to_user_id"`
	ToName   string `json:"to_name"`
	ToEmail  string `json:"to_email"`
}

// Purchase issues tickets for the authenticated purchaser.
func (h *TicketHandler) Purchase(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == "" || req.EventStartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id/event_starts_at required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.Purchase(ctx, service.PurchaseInput{
		EventID:       req.EventID,
		CategoryID:    req.CategoryID,
		OwnerID:       owner,
		OwnerName:     strings.TrimSpace(req.OwnerName),
		OwnerEmail:    strings.TrimSpace(req.OwnerEmail),
		Price:         req.Price,
		EventStartsAt: req.EventStartsAt,
		Quantity:      req.Quantity,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"tickets": tickets})
}

// List returns the purchaser's tickets.
func (h *TicketHandler) List(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tickets, err := h.Tickets.ListByOwner(ctx, owner)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Get returns one of the purchaser's tickets.
func (h *TicketHandler) Get(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.Get(ctx, c.Param("id"), owner)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Transfer moves a ticket to another user before the event starts. The
// response body is the replacement ticket issued to the transferee.
func (h *TicketHandler) Transfer(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	var req transferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ToUserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	replacement, err := h.Tickets.Transfer(ctx, c.Param("id"), owner, service.OwnerInfo{
		ID:    req.ToUserID,
		Name:  strings.TrimSpace(req.ToName),
		Email: strings.TrimSpace(req.ToEmail),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, replacement)
}

// Cancel cancels a ticket before the event starts.
func (h *TicketHandler) Cancel(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tickets.Cancel(ctx, c.Param("id"), owner); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// QRImage returns the ticket's QR code as a PNG.
func (h *TicketHandler) QRImage(c echo.Context) error {
	owner := requesterID(c)
	if owner == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	img, err := h.Tickets.QRImage(ctx, c.Param("id"), owner)
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", img)
}
