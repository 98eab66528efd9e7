package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeTicket(startsAt time.Time) Ticket {
	return Ticket{
		ID:            "ticket-1",
		EventID:       "7",
		CategoryID:    "vip",
		OwnerID:       "user-1",
		OwnerName:     "Ana Souza",
		OwnerEmail:    "ana@example.com",
		Price:         decimal.NewFromFloat(150.00),
		Code:          "TICKET_7_2024-06-15",
		QRPayload:     "https://gate.example.com/v1/validate?code=TICKET_7_2024-06-15",
		Status:        TicketActive,
		EventStartsAt: startsAt,
		PurchasedAt:   startsAt.Add(-30 * 24 * time.Hour),
	}
}

func TestTicket_Guards(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)

	before := start.Add(-time.Hour)
	after := start.Add(time.Hour)

	assert.False(t, tk.CanBeUsed(before), "cannot be used before the event starts")
	assert.True(t, tk.CanBeUsed(start), "usable exactly at event start")
	assert.True(t, tk.CanBeUsed(after))

	assert.True(t, tk.CanBeTransferred(before))
	assert.False(t, tk.CanBeTransferred(start))
	assert.False(t, tk.CanBeTransferred(after))

	assert.True(t, tk.CanBeCancelled(before))
	assert.False(t, tk.CanBeCancelled(after))
}

func TestTicket_MarkAsUsed(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)
	now := start.Add(10 * time.Minute)

	used, err := tk.MarkAsUsed(now)
	require.NoError(t, err)
	assert.Equal(t, TicketUsed, used.Status)
	require.NotNil(t, used.UsedAt)
	assert.Equal(t, now.UTC(), *used.UsedAt)

	// Original value is untouched.
	assert.Equal(t, TicketActive, tk.Status)
	assert.Nil(t, tk.UsedAt)

	// Everything else is preserved.
	assert.Equal(t, tk.Code, used.Code)
	assert.Equal(t, tk.OwnerID, used.OwnerID)
	assert.True(t, tk.Price.Equal(used.Price))

	// A second redemption fails the guard.
	_, err = used.MarkAsUsed(now.Add(time.Minute))
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTicket_MarkAsUsed_BeforeEventStart(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)

	_, err := tk.MarkAsUsed(start.Add(-time.Minute))
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTicket_MarkAsTransferred(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)
	now := start.Add(-48 * time.Hour)

	moved, err := tk.MarkAsTransferred(now, "user-2")
	require.NoError(t, err)
	assert.Equal(t, TicketTransferred, moved.Status)
	require.NotNil(t, moved.TransferredAt)
	require.NotNil(t, moved.TransferredTo)
	assert.Equal(t, "user-2", *moved.TransferredTo)

	// The code never regenerates, even on transfer.
	assert.Equal(t, tk.Code, moved.Code)

	// A transferred ticket is terminal for every transition.
	_, err = moved.MarkAsUsed(start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = moved.MarkAsTransferred(now, "user-3")
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = moved.MarkAsCancelled(now)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTicket_MarkAsTransferred_AfterEventStart(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)

	_, err := tk.MarkAsTransferred(start.Add(time.Minute), "user-2")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTicket_MarkAsCancelled(t *testing.T) {
	start := time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC)
	tk := activeTicket(start)

	cancelled, err := tk.MarkAsCancelled(start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, TicketCancelled, cancelled.Status)

	_, err = cancelled.MarkAsCancelled(start.Add(-time.Hour))
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTicket_OwnershipChecks(t *testing.T) {
	tk := activeTicket(time.Now())

	assert.True(t, tk.BelongsTo("user-1"))
	assert.False(t, tk.BelongsTo("user-2"))
	assert.True(t, tk.IsForEvent("7"))
	assert.False(t, tk.IsForEvent("8"))
}
