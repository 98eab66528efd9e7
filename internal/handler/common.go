// Package handler implements the HTTP surface of the ticket gate.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/repository"
	"github.com/venuehq/ticket-gate/internal/service"
)

// userIDHeader carries the authenticated purchaser identity, injected by
// the platform's user-facing API gateway. Scanner endpoints use capability
// tokens instead and never read it.
const userIDHeader = "X-User-Id"

// requesterID returns the purchaser identity for owner-scoped endpoints.
func requesterID(c echo.Context) string {
	return c.Request().Header.Get(userIDHeader)
}

// fail translates service and repository errors into HTTP responses.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrMalformedAPIKey):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed api key"})
	case errors.Is(err, model.ErrInvalidOperation):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrPaymentExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment already exists for ticket"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Health is a liveness endpoint for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
