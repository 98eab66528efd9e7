// Package repository implements MySQL persistence for tickets, payments and
// scanner credentials. Sentinel errors defined here let the service layer
// distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers translate
// it into an HTTP 404, except on the validation path where a missing ticket
// is an expected verdict, not an error.
var ErrNotFound = errors.New("not found")

// ErrPaymentExists is returned when a second payment is created for a
// ticket. The payments table carries a unique key on ticket_id, so the
// race between concurrent purchase attempts is closed in storage rather
// than by the application-level pre-check alone.
var ErrPaymentExists = errors.New("payment already exists for ticket")
