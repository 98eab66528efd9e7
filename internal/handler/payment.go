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

// PaymentHandler exposes payment creation, the gateway webhook transitions
// and the PIX QR image.
type PaymentHandler struct {
	Payments *service.PaymentService
}

// NewPaymentHandler returns a PaymentHandler.
func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

type createPaymentReq struct {
	TicketID string `json:"ticket_id"`
	Method   string `json:"method"` // PIX | CREDIT_CARD
}

type gatewayEventReq struct {
	TransactionID string `json:"transaction_id"`
}

// Create opens a PENDING payment for a ticket.
func (h *PaymentHandler) Create(c echo.Context) error {
	payer := requesterID(c)
	if payer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}
	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	if req.TicketID == "" || (method != model.MethodPix && method != model.MethodCreditCard) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id and method (PIX|CREDIT_CARD) required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.Create(ctx, req.TicketID, payer, method)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns the payer's payments.
func (h *PaymentHandler) List(c echo.Context) error {
	payer := requesterID(c)
	if payer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListByPayer(ctx, payer)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": payments})
}

// PixQRImage returns the payment's PIX payload rendered as a PNG.
func (h *PaymentHandler) PixQRImage(c echo.Context) error {
	payer := requesterID(c)
	if payer == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing user identity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	img, err := h.Payments.PixQRImage(ctx, c.Param("id"), payer)
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", img)
}

// Approve applies a gateway approval event to a payment. Exposed to the
// payment gateway, not to end users.
func (h *PaymentHandler) Approve(c echo.Context) error {
	var req gatewayEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TransactionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transaction_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.Approve(ctx, c.Param("id"), req.TransactionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Reject applies a gateway rejection event to a payment.
func (h *PaymentHandler) Reject(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.Reject(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Refund refunds an approved payment.
func (h *PaymentHandler) Refund(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Payments.Refund(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
