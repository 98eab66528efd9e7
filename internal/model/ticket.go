package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus enumerates the lifecycle states of a ticket.  A ticket is
// created ACTIVE and leaves that state exactly once: it is either redeemed
// at the gate (USED), cancelled before the event (CANCELLED) or transferred
// to another holder (TRANSFERRED). All three are terminal with respect to
// redemption.
type TicketStatus string

const (
	TicketActive      TicketStatus = "ACTIVE"
	TicketUsed        TicketStatus = "USED"
	TicketCancelled   TicketStatus = "CANCELLED"
	TicketTransferred TicketStatus = "TRANSFERRED"
)

// Ticket is the redeemable unit sold for an event. Owner fields are
// denormalized at issuance time so the gate can operate without a user
// service lookup. EventStartsAt is denormalized from the event record for
// the same reason: the time gates below must not require a join.
//
// Code is the human-readable identifier printed on the ticket and QRPayload
// is the opaque string embedded in the QR image; both are immutable for the
// ticket's lifetime and either one is accepted at the gate.
type Ticket struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	CategoryID    string          `json:"category_id"`
	OwnerID       string          `json:"owner_id"`
	OwnerName     string          `json:"owner_name"`
	OwnerEmail    string          `json:"owner_email"`
	Price         decimal.Decimal `json:"price"`
	Code          string          `json:"code"`
	QRPayload     string          `json:"qr_payload"`
	Status        TicketStatus    `json:"status"`
	EventStartsAt time.Time       `json:"event_starts_at"`
	PurchasedAt   time.Time       `json:"purchased_at"`
	UsedAt        *time.Time      `json:"used_at,omitempty"`
	TransferredAt *time.Time      `json:"transferred_at,omitempty"`
	TransferredTo *string         `json:"transferred_to,omitempty"`
}

// CanBeUsed reports whether the ticket may be redeemed at the given time.
// Redemption requires an ACTIVE ticket and that the event has started.
func (t Ticket) CanBeUsed(now time.Time) bool {
	return t.Status == TicketActive && !now.Before(t.EventStartsAt)
}

// CanBeTransferred reports whether ownership may still change. Transfers
// close at event start.
func (t Ticket) CanBeTransferred(now time.Time) bool {
	return t.Status == TicketActive && now.Before(t.EventStartsAt)
}

// CanBeCancelled reports whether the ticket may still be cancelled.
// Cancellation closes at event start.
func (t Ticket) CanBeCancelled(now time.Time) bool {
	return t.Status == TicketActive && now.Before(t.EventStartsAt)
}

// MarkAsUsed returns a copy of the ticket in the USED state with UsedAt set.
// The in-memory guard is advisory; the repository performs the authoritative
// conditional update so two concurrent scanners cannot both succeed.
func (t Ticket) MarkAsUsed(now time.Time) (Ticket, error) {
	if !t.CanBeUsed(now) {
		if t.Status != TicketActive {
			return Ticket{}, invalidOp("ticket %s cannot be used: status is %s", t.ID, t.Status)
		}
		return Ticket{}, invalidOp("ticket %s cannot be used before the event starts", t.ID)
	}
	used := now.UTC()
	t.Status = TicketUsed
	t.UsedAt = &used
	return t, nil
}

// MarkAsTransferred returns a copy of the ticket in the TRANSFERRED state.
// The transferred ticket itself becomes unusable; the repository issues a
// fresh ACTIVE ticket for the new owner in the same transaction.
func (t Ticket) MarkAsTransferred(now time.Time, newOwnerID string) (Ticket, error) {
	if !t.CanBeTransferred(now) {
		if t.Status != TicketActive {
			return Ticket{}, invalidOp("ticket %s cannot be transferred: status is %s", t.ID, t.Status)
		}
		return Ticket{}, invalidOp("ticket %s cannot be transferred after the event starts", t.ID)
	}
	at := now.UTC()
	t.Status = TicketTransferred
	t.TransferredAt = &at
	t.TransferredTo = &newOwnerID
	return t, nil
}

// MarkAsCancelled returns a copy of the ticket in the CANCELLED state.
func (t Ticket) MarkAsCancelled(now time.Time) (Ticket, error) {
	if !t.CanBeCancelled(now) {
		if t.Status != TicketActive {
			return Ticket{}, invalidOp("ticket %s cannot be cancelled: status is %s", t.ID, t.Status)
		}
		return Ticket{}, invalidOp("ticket %s cannot be cancelled after the event starts", t.ID)
	}
	t.Status = TicketCancelled
	return t, nil
}

// BelongsTo reports whether the ticket is owned by the given user.
func (t Ticket) BelongsTo(userID string) bool { return t.OwnerID == userID }

// IsForEvent reports whether the ticket admits to the given event.
func (t Ticket) IsForEvent(eventID string) bool { return t.EventID == eventID }
