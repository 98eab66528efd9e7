package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/venuehq/ticket-gate/internal/model"
	"github.com/venuehq/ticket-gate/internal/qrcode"
	"github.com/venuehq/ticket-gate/internal/utils"
)

// TicketStore is the persistence surface the ticket service needs.
// CreateAll must be atomic: a failed call persists none of the tickets.
type TicketStore interface {
	CreateAll(ctx context.Context, ts []model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Ticket, error)
	Cancel(ctx context.Context, id string) (bool, error)
	Transfer(ctx context.Context, id string, at time.Time, newOwnerID string, replacement model.Ticket) (bool, error)
}

// maxTicketsPerPurchase caps a single purchase request.
const maxTicketsPerPurchase = 10

// TicketService issues tickets at purchase time and drives the owner-side
// lifecycle operations: transfer and cancellation.
type TicketService struct {
	log     *slog.Logger
	store   TicketStore
	baseURL string
}

// NewTicketService returns a new TicketService. baseURL is the public URL
// prefix embedded in QR payloads.
func NewTicketService(log *slog.Logger, store TicketStore, baseURL string) *TicketService {
	return &TicketService{log: log, store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// PurchaseInput describes one purchase: quantity tickets for one event
// category, all owned by the same purchaser. Owner name and email are
// denormalized onto each ticket at issuance time.
type PurchaseInput struct {
	EventID       string
	CategoryID    string
	OwnerID       string
	OwnerName     string
	OwnerEmail    string
	Price         decimal.Decimal
	EventStartsAt time.Time
	Quantity      int
}

// Purchase issues one ticket per unit purchased. Each ticket receives its
// own immutable code and QR payload.
func (s *TicketService) Purchase(ctx context.Context, in PurchaseInput) ([]model.Ticket, error) {
	const op = "service.ticket.Purchase"
	log := s.log.With("op", op, "event_id", in.EventID, "owner_id", in.OwnerID)

	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	if in.Quantity > maxTicketsPerPurchase {
		return nil, fmt.Errorf("%s: quantity %d exceeds limit of %d", op, in.Quantity, maxTicketsPerPurchase)
	}

	now := time.Now().UTC()
	tickets := make([]model.Ticket, 0, in.Quantity)
	for i := 0; i < in.Quantity; i++ {
		t, err := s.issue(in, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tickets = append(tickets, t)
	}

	// Single atomic insert: a failed purchase leaves no partial tickets.
	if err := s.store.CreateAll(ctx, tickets); err != nil {
		log.Error("failed to create tickets", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tickets issued", "count", len(tickets))
	return tickets, nil
}

// Get returns a ticket after checking the requester owns it.
func (s *TicketService) Get(ctx context.Context, ticketID, requesterID string) (*model.Ticket, error) {
	const op = "service.ticket.Get"
	t, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !t.BelongsTo(requesterID) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return t, nil
}

// ListByOwner returns all tickets owned by a user.
func (s *TicketService) ListByOwner(ctx context.Context, ownerID string) ([]model.Ticket, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// OwnerInfo identifies the transferee of a ticket.
type OwnerInfo struct {
	ID    string
	Name  string
	Email string
}

// Transfer marks the caller's ticket TRANSFERRED and issues a fresh ACTIVE
// ticket, with a new code, for the transferee. The returned ticket is the
// transferee's. The original ticket is terminal after this and can no
// longer be redeemed by anyone.
func (s *TicketService) Transfer(ctx context.Context, ticketID, ownerID string, to OwnerInfo) (*model.Ticket, error) {
	const op = "service.ticket.Transfer"
	log := s.log.With("op", op, "ticket_id", ticketID)

	t, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !t.BelongsTo(ownerID) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	now := time.Now()
	if _, err := t.MarkAsTransferred(now, to.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	replacement, err := s.issue(PurchaseInput{
		EventID:       t.EventID,
		CategoryID:    t.CategoryID,
		OwnerID:       to.ID,
		OwnerName:     to.Name,
		OwnerEmail:    to.Email,
		Price:         t.Price,
		EventStartsAt: t.EventStartsAt,
	}, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.store.Transfer(ctx, t.ID, now, to.ID, replacement)
	if err != nil {
		log.Error("transfer failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		// Lost a race against redemption or cancellation.
		return nil, fmt.Errorf("%s: %w: ticket %s is no longer ACTIVE", op, model.ErrInvalidOperation, t.ID)
	}

	log.Info("ticket transferred", "from", ownerID, "to", to.ID, "replacement_id", replacement.ID)
	return &replacement, nil
}

// Cancel marks the caller's ticket CANCELLED.
func (s *TicketService) Cancel(ctx context.Context, ticketID, ownerID string) error {
	const op = "service.ticket.Cancel"

	t, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !t.BelongsTo(ownerID) {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	if _, err := t.MarkAsCancelled(time.Now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.store.Cancel(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w: ticket %s is no longer ACTIVE", op, model.ErrInvalidOperation, t.ID)
	}

	s.log.Info("ticket cancelled", "op", op, "ticket_id", t.ID)
	return nil
}

// QRImage renders the ticket's QR payload as a PNG for the owner.
func (s *TicketService) QRImage(ctx context.Context, ticketID, requesterID string) ([]byte, error) {
	const op = "service.ticket.QRImage"
	t, err := s.Get(ctx, ticketID, requesterID)
	if err != nil {
		return nil, err
	}
	img, err := qrcode.Encode(t.QRPayload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return img, nil
}

// issue builds a new ACTIVE ticket value with a fresh code and QR payload.
func (s *TicketService) issue(in PurchaseInput, now time.Time) (model.Ticket, error) {
	code, err := newTicketCode(in.EventID, in.EventStartsAt)
	if err != nil {
		return model.Ticket{}, err
	}
	return model.Ticket{
		ID:            uuid.NewString(),
		EventID:       in.EventID,
		CategoryID:    in.CategoryID,
		OwnerID:       in.OwnerID,
		OwnerName:     in.OwnerName,
		OwnerEmail:    in.OwnerEmail,
		Price:         in.Price,
		Code:          code,
		QRPayload:     fmt.Sprintf("%s/v1/validate?code=%s", s.baseURL, code),
		Status:        model.TicketActive,
		EventStartsAt: in.EventStartsAt.UTC(),
		PurchasedAt:   now,
	}, nil
}

// newTicketCode derives a human-readable code of the form
// TICKET_<event>_<date>_<random>. The random tail keeps codes unique across
// tickets of the same event; the tickets table additionally enforces
// uniqueness with a key on the column.
func newTicketCode(eventID string, startsAt time.Time) (string, error) {
	suffix, err := utils.RandomHex(3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TICKET_%s_%s_%s",
		eventID, startsAt.UTC().Format("2006-01-02"), strings.ToUpper(suffix)), nil
}
